/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package timeline_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/danthegoodman1/automq/pkg/timeline"
)

var _ = Describe("Registry", func() {
	var (
		registry *timeline.Registry
		counter  *timeline.Value[int64]
		entries  *timeline.Map[string, int64]
	)

	BeforeEach(func() {
		registry = timeline.NewRegistry()
		counter = timeline.NewValue[int64](registry, 0)
		entries = timeline.NewMap[string, int64](registry)
	})

	It("reverts a value to the state at snapshot creation", func() {
		counter.Set(1)
		registry.IdempotentCreateSnapshot(10)
		counter.Set(2)
		counter.Set(3)

		registry.RevertToSnapshot(10)
		Expect(counter.Get()).To(Equal(int64(1)))

		// The reverted snapshot stays live and records new mutations.
		counter.Set(4)
		registry.RevertToSnapshot(10)
		Expect(counter.Get()).To(Equal(int64(1)))
	})

	It("reverts map mutations, including deletes and re-inserts", func() {
		entries.Put("a", 1)
		entries.Put("b", 2)
		registry.IdempotentCreateSnapshot(10)

		entries.Delete("a")
		entries.Put("b", 20)
		entries.Put("c", 3)

		registry.RevertToSnapshot(10)

		Expect(entries.Len()).To(Equal(2))
		a, ok := entries.Get("a")
		Expect(ok).To(BeTrue())
		Expect(a).To(Equal(int64(1)))
		b, _ := entries.Get("b")
		Expect(b).To(Equal(int64(2)))
		_, ok = entries.Get("c")
		Expect(ok).To(BeFalse())
	})

	It("unwinds through multiple snapshots newest-first", func() {
		entries.Put("a", 1)
		registry.IdempotentCreateSnapshot(10)
		entries.Put("a", 2)
		registry.IdempotentCreateSnapshot(20)
		entries.Put("a", 3)
		registry.IdempotentCreateSnapshot(30)
		entries.Put("a", 4)

		registry.RevertToSnapshot(20)
		a, _ := entries.Get("a")
		Expect(a).To(Equal(int64(2)))
		Expect(registry.SnapshotCount()).To(Equal(2))
	})

	It("only records the oldest displaced state per key per snapshot", func() {
		entries.Put("a", 1)
		registry.IdempotentCreateSnapshot(10)
		entries.Put("a", 2)
		entries.Put("a", 3)
		entries.Delete("a")

		registry.RevertToSnapshot(10)
		a, ok := entries.Get("a")
		Expect(ok).To(BeTrue())
		Expect(a).To(Equal(int64(1)))
	})

	It("cannot revert below a deleted watermark", func() {
		registry.IdempotentCreateSnapshot(10)
		counter.Set(1)
		registry.IdempotentCreateSnapshot(20)
		counter.Set(2)
		registry.IdempotentCreateSnapshot(30)

		registry.DeleteSnapshotsUpTo(30)
		Expect(registry.SnapshotCount()).To(Equal(1))
		Expect(func() { registry.RevertToSnapshot(10) }).To(Panic())
		Expect(func() { registry.RevertToSnapshot(20) }).To(Panic())

		// The surviving snapshot still works.
		counter.Set(3)
		registry.RevertToSnapshot(30)
		Expect(counter.Get()).To(Equal(int64(2)))
	})

	It("treats re-creating the latest snapshot as a no-op", func() {
		registry.IdempotentCreateSnapshot(10)
		registry.IdempotentCreateSnapshot(10)
		Expect(registry.SnapshotCount()).To(Equal(1))
	})

	It("panics when creating a snapshot below the latest", func() {
		registry.IdempotentCreateSnapshot(10)
		Expect(func() { registry.IdempotentCreateSnapshot(5) }).To(Panic())
	})

	It("panics when reverting to an unknown snapshot", func() {
		registry.IdempotentCreateSnapshot(10)
		Expect(func() { registry.RevertToSnapshot(11) }).To(Panic())
	})

	It("does not version mutations made before the first snapshot", func() {
		counter.Set(7)
		registry.IdempotentCreateSnapshot(10)
		registry.RevertToSnapshot(10)
		Expect(counter.Get()).To(Equal(int64(7)))
	})
})
