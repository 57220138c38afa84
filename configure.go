package main

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

const logLevelFlag = "log-level"

func configure(app *cli.App) {
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   logLevelFlag,
			Usage:  "log level (debug, info, warn, error)",
			Value:  "info",
			EnvVar: "LOG_LEVEL",
		},
	}
	app.Before = setLogLevel
	serveCMD := makeServeCMD()
	checkCMD := makeCheckCMD()
	posterCMD := makePosterCMD()
	app.Commands = []cli.Command{serveCMD, checkCMD, posterCMD}
}

func setLogLevel(c *cli.Context) error {
	lvl, err := log.ParseLevel(c.GlobalString(logLevelFlag))
	if err != nil {
		return errors.Wrap(err, "failed to parse log level")
	}
	log.SetLevel(lvl)
	return nil
}
