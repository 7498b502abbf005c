package app

import (
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/dig"

	"order-notifier/internal/logx"
	"order-notifier/internal/transport/sqsevent"
)

var lambdaStart = func(handler any) { lambda.Start(handler) }

// MustRunLambda hands the SQS handler to the Lambda runtime. It blocks
// for the lifetime of the execution environment.
func MustRunLambda(container *dig.Container) {
	if err := runLambda(container); err != nil {
		log.Fatalf("run error: %v", err)
	}
}

func runLambda(container *dig.Container) error {
	return container.Invoke(func(h *sqsevent.Handler, logger logx.Logger, closeTopic topicCloser) {
		defer func() {
			if err := closeTopic(); err != nil {
				logger.Error("topic close error", logx.Err(err))
			}
		}()
		logger.Info("order-notifier lambda started")
		lambdaStart(h.Handle)
	})
}
