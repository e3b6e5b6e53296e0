package main

import (
	"log"
	"log/slog"

	"github.com/blitzstudios/code-push-server/cmd"
	"github.com/blitzstudios/code-push-server/utils"
	logutil "github.com/blitzstudios/code-push-server/utils/log"
	gormlogger "gorm.io/gorm/logger"
)

func main() {
	if utils.VersionHash == "unknown" {
		logutil.SetupGlobalLogger(slog.LevelDebug)
		logutil.SetGormLogLevel(gormlogger.Info)
	} else {
		logutil.SetupGlobalLogger(slog.LevelInfo)
		logutil.SetGormLogLevel(gormlogger.Silent)
	}

	log.Printf("code-push-server %s (hash: %s)", utils.CurrentVersion, utils.VersionHash)

	cmd.Execute()
}
