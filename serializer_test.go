/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package streamcontrol_test

import (
	"os"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	sc "github.com/danthegoodman1/automq"
	"github.com/danthegoodman1/automq/pkg/metalog"
	"github.com/danthegoodman1/automq/pkg/objectstore"
	t "github.com/danthegoodman1/automq/pkg/types"
)

var _ = Describe("Controller", func() {
	var (
		walDir     string
		metaLog    *metalog.Log
		objects    *objectstore.VolatileStore
		controller *sc.Controller
	)

	BeforeEach(func() {
		var err error
		walDir, err = os.MkdirTemp("", "streamcontrol-test-*")
		Expect(err).NotTo(HaveOccurred())

		metaLog, err = metalog.Open(walDir)
		Expect(err).NotTo(HaveOccurred())

		objects = objectstore.NewVolatileStore()

		controller, err = sc.NewController(&sc.Config{}, metaLog, objects)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		controller.Stop()
		metaLog.Close()
		os.RemoveAll(walDir)
	})

	workload := func() {
		createResp, err := controller.CreateStream(&sc.CreateStreamRequest{})
		Expect(err).NotTo(HaveOccurred())
		Expect(createResp.StreamId).To(Equal(t.StreamID(0)))

		openResp, err := controller.OpenStream(&sc.OpenStreamRequest{StreamId: 0, StreamEpoch: 0, BrokerId: 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(openResp.ErrorCode).To(Equal(sc.ErrorNone))

		Expect(objects.PrepareObject(0)).To(Succeed())
		commitResp, err := controller.CommitWALObject(&sc.CommitWALObjectRequest{
			ObjectId:   0,
			BrokerId:   0,
			ObjectSize: 4096,
			ObjectStreamRanges: []sc.ObjectStreamRange{
				{StreamId: 0, StreamEpoch: 0, StartOffset: 0, EndOffset: 100},
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(commitResp.ErrorCode).To(Equal(sc.ErrorNone))
		Expect(commitResp.FailedStreamIds).To(BeEmpty())
	}

	It("applies operations in submission order", func() {
		workload()

		status, err := controller.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(status).To(Equal(&sc.Status{
			NextAssignedStreamId: 1,
			Streams: []*sc.StreamStatus{{
				StreamId:          0,
				CurrentEpoch:      0,
				CurrentRangeIndex: 0,
				StartOffset:       0,
				Ranges: []sc.RangeStatus{
					{RangeIndex: 0, Epoch: 0, BrokerId: 0, StartOffset: 0, EndOffset: 100},
				},
			}},
			Brokers: []*sc.BrokerStatus{{
				BrokerId:   0,
				WALObjects: []int64{0},
			}},
		}))
	})

	It("rebuilds the same state from the durable log after a restart", func() {
		workload()
		before, err := controller.Status()
		Expect(err).NotTo(HaveOccurred())

		controller.Stop()
		Expect(metaLog.Close()).To(Succeed())

		reopened, err := metalog.Open(walDir)
		Expect(err).NotTo(HaveOccurred())
		metaLog = reopened

		controller, err = sc.NewController(&sc.Config{}, metaLog, objects)
		Expect(err).NotTo(HaveOccurred())

		after, err := controller.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(after).To(Equal(before))
	})

	It("reverts in-memory state to a snapshot when the log tail is discarded", func() {
		createResp, err := controller.CreateStream(&sc.CreateStreamRequest{})
		Expect(err).NotTo(HaveOccurred())

		// The snapshot after the create covers log offsets 0 and 1.
		openResp, err := controller.OpenStream(&sc.OpenStreamRequest{StreamId: createResp.StreamId, StreamEpoch: 0, BrokerId: 0})
		Expect(err).NotTo(HaveOccurred())
		Expect(openResp.ErrorCode).To(Equal(sc.ErrorNone))

		Expect(controller.RevertToOffset(1)).To(Succeed())

		status, err := controller.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(status.Streams).To(HaveLen(1))
		Expect(status.Streams[0].CurrentRangeIndex).To(Equal(int32(-1)))
		Expect(status.Streams[0].Ranges).To(BeEmpty())
	})

	It("refuses operations after Stop", func() {
		controller.Stop()
		_, err := controller.CreateStream(&sc.CreateStreamRequest{})
		Expect(err).To(Equal(sc.ErrStopped))
	})
})
