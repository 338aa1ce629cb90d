package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/lincolnep/xcode-tools/internal/cli"
	"github.com/lincolnep/xcode-tools/internal/models"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		var te *models.ToolError
		if errors.As(err, &te) {
			logrus.WithField("kind", te.Type.String()).Error(te.Err)
		} else {
			logrus.Error(err)
		}
		os.Exit(1)
	}
}
