package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli"
)

const posterTitleFlag = "title"

func makePosterCMD() cli.Command {
	posterCMD := cli.Command{
		Name:    "poster",
		Aliases: []string{"p"},
		Usage:   "Fetches poster for a single movie title",
		Action:  fetchPoster,
	}
	posterCMD.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  posterTitleFlag,
			Usage: "movie title",
		},
	}
	posterCMD.Flags = configurePoster(posterCMD.Flags)
	return posterCMD
}

func fetchPoster(c *cli.Context) error {
	title := c.String(posterTitleFlag)
	if title == "" {
		title = c.Args().First()
	}
	if title == "" {
		return errors.New("movie title is required")
	}

	pr, closer := makePosterResolver(c)
	defer closer()

	p, err := pr.Resolve(context.Background(), title)
	if err != nil {
		return errors.Wrapf(err, "failed to get poster for %q", title)
	}
	fmt.Println(p)
	return nil
}
