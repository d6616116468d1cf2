/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// streamctld runs a single-node stream controller against a local metadata
// log and object registry, and walks it through a small scripted workload.
// It exists to exercise the full stack (manager, metadata log, object
// store, controller loop) outside the test suite.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	logger "github.com/rs/zerolog/log"
	"go.uber.org/zap"
	"gopkg.in/alecthomas/kingpin.v2"

	streamcontrol "github.com/danthegoodman1/automq"
	"github.com/danthegoodman1/automq/pkg/metalog"
	"github.com/danthegoodman1/automq/pkg/objectstore"
	t "github.com/danthegoodman1/automq/pkg/types"
)

var (
	app        = kingpin.New("streamctld", "Single-node stream controller playground.")
	dataDir    = app.Flag("data-dir", "Directory for the metadata log and object registry.").Default("streamctld-data").String()
	verbose    = app.Flag("verbose", "Enable debug logging.").Short('v').Bool()
	numStreams = app.Flag("streams", "Number of streams the scripted workload creates.").Default("2").Int()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	// Configure logger
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	logger.Logger = logger.Output(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		NoColor:    true,
		TimeFormat: "15:04:05.000"})

	if err := run(); err != nil {
		logger.Fatal().Err(err).Msg("streamctld failed")
	}
}

func run() error {
	zapLogger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer zapLogger.Sync()

	metaLog, err := metalog.Open(*dataDir + "/metalog")
	if err != nil {
		return err
	}
	defer metaLog.Close()

	objects, err := objectstore.Open(*dataDir + "/objects")
	if err != nil {
		return err
	}
	defer objects.Close()

	controller, err := streamcontrol.NewController(&streamcontrol.Config{
		Logger:            zapLogger,
		SnapshotInterval:  16,
		RetainedSnapshots: 4,
	}, metaLog, objects)
	if err != nil {
		return err
	}
	defer controller.Stop()

	// Scripted workload: create, open, upload a WAL object per stream.
	for i := 0; i < *numStreams; i++ {
		createResp, err := controller.CreateStream(&streamcontrol.CreateStreamRequest{})
		if err != nil {
			return err
		}
		logger.Info().Int64("streamId", createResp.StreamId.Pb()).Msg("stream created")

		openResp, err := controller.OpenStream(&streamcontrol.OpenStreamRequest{
			StreamId:    createResp.StreamId,
			StreamEpoch: 0,
			BrokerId:    0,
		})
		if err != nil {
			return err
		}
		if openResp.ErrorCode != streamcontrol.ErrorNone {
			return fmt.Errorf("open stream %d: %s", createResp.StreamId, openResp.ErrorCode)
		}

		objectID := int64(i)
		if err := objects.PrepareObject(objectID); err != nil {
			return err
		}
		commitResp, err := controller.CommitWALObject(&streamcontrol.CommitWALObjectRequest{
			ObjectId:   t.ObjectID(objectID),
			BrokerId:   0,
			ObjectSize: 4096,
			ObjectStreamRanges: []streamcontrol.ObjectStreamRange{{
				StreamId:    createResp.StreamId,
				StreamEpoch: 0,
				StartOffset: openResp.NextOffset,
				EndOffset:   openResp.NextOffset + 100,
			}},
		})
		if err != nil {
			return err
		}
		if commitResp.ErrorCode != streamcontrol.ErrorNone {
			return fmt.Errorf("commit WAL object %d: %s", objectID, commitResp.ErrorCode)
		}
		logger.Info().Int64("objectId", objectID).Msg("WAL object committed")
	}

	status, err := controller.Status()
	if err != nil {
		return err
	}
	fmt.Print(status.Pretty())
	return nil
}
