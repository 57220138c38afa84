package main

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/webtor-io/movie-catalog/services/catalog"
	"github.com/webtor-io/movie-catalog/services/poster"
)

func makeCheckCMD() cli.Command {
	checkCMD := cli.Command{
		Name:    "check",
		Aliases: []string{"c"},
		Usage:   "Checks dataset and poster directory",
		Action:  check,
	}
	configureCheck(&checkCMD)
	return checkCMD
}

func configureCheck(c *cli.Command) {
	c.Flags = catalog.RegisterFlags(c.Flags)
	c.Flags = poster.RegisterFlags(c.Flags)
}

// check reports every problem it finds and fails if there was any.
func check(c *cli.Context) error {
	failed := 0

	cat, err := catalog.NewFromContext(c)
	if err != nil {
		log.WithError(err).WithField("path", catalog.Path(c)).Error("dataset check failed")
		failed++
	} else {
		log.WithField("movies", cat.Len()).Info("dataset loaded")
	}

	pr := poster.New(c, nil)
	if err := pr.EnsureDir(); err != nil {
		log.WithError(err).Error("poster dir check failed")
		failed++
	} else if err := pr.CheckWritable(); err != nil {
		log.WithError(err).Error("poster dir check failed")
		failed++
	} else {
		log.WithField("dir", pr.Dir()).Info("poster dir is writable")
	}

	if failed > 0 {
		return errors.Errorf("%d checks failed", failed)
	}
	log.Info("environment is ready")
	return nil
}
