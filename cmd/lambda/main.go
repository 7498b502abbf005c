package main

import (
	"context"

	"order-notifier/internal/app"
)

func main() {
	container := app.MustBuildContainer(context.Background())
	app.MustRunLambda(container)
}
