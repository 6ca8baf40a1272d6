package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/gigjozsa/tirific-sub001/cube"
)

var statCmd = &cobra.Command{
	Use:   "stat <cube.fits>",
	Short: "Read a FITS cube and report its min/max/mean/rms and flagged-sample count",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := cube.Read(args[0])
		if err != nil {
			return err
		}
		s := c.Stat()
		logrus.WithFields(logrus.Fields{
			"shape":    [3]int{c.SizeX, c.SizeY, c.SizeV},
			"min":      s.Min,
			"max":      s.Max,
			"mean":     s.Mean,
			"rms":      s.RMS,
			"nfinite":  s.NFinite,
			"nflagged": s.NFlagged,
		}).Info("cube statistics")
		return nil
	},
}
