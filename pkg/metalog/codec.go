/*
Copyright IBM Corp. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package metalog

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"

	"github.com/pkg/errors"

	streamcontrol "github.com/danthegoodman1/automq"
	t "github.com/danthegoodman1/automq/pkg/types"
)

// Record kinds on the wire. The values are part of the log format and must
// not be renumbered.
const (
	kindAssignedStreamId byte = 1
	kindS3Stream         byte = 2
	kindRemoveS3Stream   byte = 3
	kindRange            byte = 4
	kindRemoveRange      byte = 5
	kindBrokerWALMeta    byte = 6
	kindWALObject        byte = 7
)

// ErrCorruptRecord is returned when a stored frame fails its checksum or
// cannot be decoded.
var ErrCorruptRecord = errors.New("corrupt metadata log record")

// Frames are [crc32 | kind | body] with the checksum covering kind and
// body. All integers are little-endian and fixed width.
func encodeRecord(record streamcontrol.Record) ([]byte, error) {
	payload := new(bytes.Buffer)

	switch r := record.(type) {
	case *streamcontrol.AssignedStreamIdRecord:
		payload.WriteByte(kindAssignedStreamId)
		binary.Write(payload, binary.LittleEndian, r.AssignedStreamId.Pb())
	case *streamcontrol.S3StreamRecord:
		payload.WriteByte(kindS3Stream)
		binary.Write(payload, binary.LittleEndian, r.StreamId.Pb())
		binary.Write(payload, binary.LittleEndian, r.Epoch.Pb())
		binary.Write(payload, binary.LittleEndian, r.RangeIndex.Pb())
		binary.Write(payload, binary.LittleEndian, r.StartOffset.Pb())
	case *streamcontrol.RemoveS3StreamRecord:
		payload.WriteByte(kindRemoveS3Stream)
		binary.Write(payload, binary.LittleEndian, r.StreamId.Pb())
	case *streamcontrol.RangeRecord:
		payload.WriteByte(kindRange)
		binary.Write(payload, binary.LittleEndian, r.StreamId.Pb())
		binary.Write(payload, binary.LittleEndian, r.RangeIndex.Pb())
		binary.Write(payload, binary.LittleEndian, r.Epoch.Pb())
		binary.Write(payload, binary.LittleEndian, r.BrokerId.Pb())
		binary.Write(payload, binary.LittleEndian, r.StartOffset.Pb())
		binary.Write(payload, binary.LittleEndian, r.EndOffset.Pb())
	case *streamcontrol.RemoveRangeRecord:
		payload.WriteByte(kindRemoveRange)
		binary.Write(payload, binary.LittleEndian, r.StreamId.Pb())
		binary.Write(payload, binary.LittleEndian, r.RangeIndex.Pb())
	case *streamcontrol.BrokerWALMetadataRecord:
		payload.WriteByte(kindBrokerWALMeta)
		binary.Write(payload, binary.LittleEndian, r.BrokerId.Pb())
	case *streamcontrol.WALObjectRecord:
		payload.WriteByte(kindWALObject)
		binary.Write(payload, binary.LittleEndian, r.ObjectId.Pb())
		binary.Write(payload, binary.LittleEndian, r.BrokerId.Pb())
		binary.Write(payload, binary.LittleEndian, r.ObjectSize)
		binary.Write(payload, binary.LittleEndian, uint32(len(r.StreamRanges)))
		for _, sr := range r.StreamRanges {
			binary.Write(payload, binary.LittleEndian, sr.StreamId.Pb())
			binary.Write(payload, binary.LittleEndian, sr.StreamEpoch.Pb())
			binary.Write(payload, binary.LittleEndian, sr.StartOffset.Pb())
			binary.Write(payload, binary.LittleEndian, sr.EndOffset.Pb())
		}
	default:
		return nil, errors.Errorf("cannot encode record of type %T", record)
	}

	body := payload.Bytes()
	frame := new(bytes.Buffer)
	binary.Write(frame, binary.LittleEndian, crc32.ChecksumIEEE(body))
	frame.Write(body)
	return frame.Bytes(), nil
}

func decodeRecord(data []byte) (streamcontrol.Record, error) {
	if len(data) < 5 {
		return nil, ErrCorruptRecord
	}
	checksum := binary.LittleEndian.Uint32(data[:4])
	body := data[4:]
	if crc32.ChecksumIEEE(body) != checksum {
		return nil, ErrCorruptRecord
	}

	kind := body[0]
	reader := bytes.NewReader(body[1:])
	read64 := func() int64 {
		var v int64
		binary.Read(reader, binary.LittleEndian, &v)
		return v
	}
	read32 := func() int32 {
		var v int32
		binary.Read(reader, binary.LittleEndian, &v)
		return v
	}

	var record streamcontrol.Record
	switch kind {
	case kindAssignedStreamId:
		record = &streamcontrol.AssignedStreamIdRecord{
			AssignedStreamId: t.StreamID(read64()),
		}
	case kindS3Stream:
		record = &streamcontrol.S3StreamRecord{
			StreamId:    t.StreamID(read64()),
			Epoch:       t.Epoch(read64()),
			RangeIndex:  t.RangeIndex(read32()),
			StartOffset: t.Offset(read64()),
		}
	case kindRemoveS3Stream:
		record = &streamcontrol.RemoveS3StreamRecord{
			StreamId: t.StreamID(read64()),
		}
	case kindRange:
		record = &streamcontrol.RangeRecord{
			StreamId:    t.StreamID(read64()),
			RangeIndex:  t.RangeIndex(read32()),
			Epoch:       t.Epoch(read64()),
			BrokerId:    t.BrokerID(read32()),
			StartOffset: t.Offset(read64()),
			EndOffset:   t.Offset(read64()),
		}
	case kindRemoveRange:
		record = &streamcontrol.RemoveRangeRecord{
			StreamId:   t.StreamID(read64()),
			RangeIndex: t.RangeIndex(read32()),
		}
	case kindBrokerWALMeta:
		record = &streamcontrol.BrokerWALMetadataRecord{
			BrokerId: t.BrokerID(read32()),
		}
	case kindWALObject:
		walObject := &streamcontrol.WALObjectRecord{
			ObjectId:   t.ObjectID(read64()),
			BrokerId:   t.BrokerID(read32()),
			ObjectSize: read64(),
		}
		var count uint32
		binary.Read(reader, binary.LittleEndian, &count)
		for i := uint32(0); i < count; i++ {
			walObject.StreamRanges = append(walObject.StreamRanges, streamcontrol.ObjectStreamRange{
				StreamId:    t.StreamID(read64()),
				StreamEpoch: t.Epoch(read64()),
				StartOffset: t.Offset(read64()),
				EndOffset:   t.Offset(read64()),
			})
		}
		record = walObject
	default:
		return nil, errors.Wrapf(ErrCorruptRecord, "unknown record kind %d", kind)
	}

	if reader.Len() != 0 {
		return nil, errors.Wrap(ErrCorruptRecord, "trailing bytes after record body")
	}
	return record, nil
}
