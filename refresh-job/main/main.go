package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"

	"contact-list/app"
)

func handler(ctx context.Context) error {
	a, err := app.Start(os.Getenv("CONFIG_FILE"), os.Stderr)
	if err != nil {
		return err
	}
	key, err := a.Snapshot(ctx)
	if err != nil {
		return err
	}
	a.Log.Info("snapshot archived", "key", key)
	return nil
}

func main() {
	lambda.Start(handler)
}
