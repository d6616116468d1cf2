/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package objectstore_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	streamcontrol "github.com/danthegoodman1/automq"
	"github.com/danthegoodman1/automq/pkg/objectstore"
)

// collaborator is the surface shared by the badger-backed and the volatile
// implementation; both must behave identically.
type collaborator interface {
	streamcontrol.ObjectController
	PrepareObject(objectID int64) error
	ObjectState(objectID int64) (objectstore.ObjectState, int64, error)
	Close()
}

func describeCollaborator(name string, open func() collaborator) bool {
	return Describe(name, func() {
		var store collaborator

		BeforeEach(func() {
			store = open()
		})

		AfterEach(func() {
			store.Close()
		})

		It("refuses to commit an identifier that was never prepared", func() {
			records, existed, err := store.CommitObject(1, 999)
			Expect(err).To(MatchError(streamcontrol.ErrObjectNotExist))
			Expect(existed).To(BeFalse())
			Expect(records).To(BeEmpty())
		})

		It("transitions a prepared object to committed", func() {
			Expect(store.PrepareObject(1)).To(Succeed())

			state, _, err := store.ObjectState(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(Equal(objectstore.StatePrepared))

			records, existed, err := store.CommitObject(1, 999)
			Expect(err).NotTo(HaveOccurred())
			Expect(existed).To(BeFalse())
			Expect(records).To(BeEmpty())

			state, size, err := store.ObjectState(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(Equal(objectstore.StateCommitted))
			Expect(size).To(Equal(int64(999)))
		})

		It("reports an already-committed object without changing it", func() {
			Expect(store.PrepareObject(1)).To(Succeed())
			_, _, err := store.CommitObject(1, 999)
			Expect(err).NotTo(HaveOccurred())

			records, existed, err := store.CommitObject(1, 12345)
			Expect(err).NotTo(HaveOccurred())
			Expect(existed).To(BeTrue())
			Expect(records).To(BeEmpty())

			_, size, err := store.ObjectState(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(size).To(Equal(int64(999)))
		})

		It("keeps the existing state when an identifier is re-prepared", func() {
			Expect(store.PrepareObject(1)).To(Succeed())
			_, _, err := store.CommitObject(1, 999)
			Expect(err).NotTo(HaveOccurred())

			Expect(store.PrepareObject(1)).To(Succeed())
			state, _, err := store.ObjectState(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(Equal(objectstore.StateCommitted))
		})
	})
}

var _ = describeCollaborator("badger-backed Store", func() collaborator {
	store, err := objectstore.Open("")
	Expect(err).NotTo(HaveOccurred())
	return store
})

var _ = describeCollaborator("VolatileStore", func() collaborator {
	return objectstore.NewVolatileStore()
})
