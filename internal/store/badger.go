// Copyright 2020 Erin Shepherd
// SPDX-License-Identifier: ISC

package store

import (
	"encoding/binary"
	"fmt"
	"reflect"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/fxamacker/cbor/v2"
	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
)

// Key layout. The client id is NUL terminated so that one id is never a
// prefix of another; the suffix is a big-endian uint64 so keys sort in time
// (or queue) order.
//
//     recv/<client>\x00<reception nanos>  -> []Message
//     send/<client>\x00<sequence>         -> []Message
var (
	recvPrefix = []byte("recv/")
	sendPrefix = []byte("send/")
	sendSeqKey = []byte("seq/send")
)

const seqBandwidth = 128

func clientPrefix(kind []byte, clientID string) []byte {
	p := make([]byte, 0, len(kind)+len(clientID)+1)
	p = append(p, kind...)
	p = append(p, clientID...)
	return append(p, 0)
}

func itemKey(prefix []byte, n uint64) []byte {
	k := make([]byte, len(prefix)+8)
	copy(k, prefix)
	binary.BigEndian.PutUint64(k[len(prefix):], n)
	return k
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}

	decMode, err = cbor.DecOptions{
		IntDec:         cbor.IntDecConvertSigned,
		DefaultMapType: reflect.TypeOf(map[string]interface{}(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

// Badger is a Store persisted in a badger database. Records are CBOR
// encoded.
type Badger struct {
	db          *badger.DB
	seq         *badger.Sequence
	maxMessages int
	logger      kitlog.Logger
}

var _ Store = &Badger{}

// badgerLogger forwards the database's own logging to a go-kit logger
type badgerLogger struct {
	logger kitlog.Logger
}

func (l badgerLogger) Errorf(f string, v ...interface{}) {
	level.Error(l.logger).Log("event", "badger", "msg", fmt.Sprintf(f, v...))
}

func (l badgerLogger) Warningf(f string, v ...interface{}) {
	level.Warn(l.logger).Log("event", "badger", "msg", fmt.Sprintf(f, v...))
}

func (l badgerLogger) Infof(f string, v ...interface{}) {
	level.Debug(l.logger).Log("event", "badger", "msg", fmt.Sprintf(f, v...))
}

func (l badgerLogger) Debugf(f string, v ...interface{}) {
	level.Debug(l.logger).Log("event", "badger", "msg", fmt.Sprintf(f, v...))
}

// BadgerOptions returns the options used for a database in dir
func BadgerOptions(dir string, logger kitlog.Logger) badger.Options {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}
	return badger.DefaultOptions(dir).WithLogger(badgerLogger{logger})
}

// OpenBadger opens the database described by opts
func OpenBadger(opts badger.Options, maxMessages int, logger kitlog.Logger) (*Badger, error) {
	if logger == nil {
		logger = kitlog.NewNopLogger()
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "store: open badger")
	}

	seq, err := db.GetSequence(sendSeqKey, seqBandwidth)
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "store: send sequence")
	}

	return &Badger{
		db:          db,
		seq:         seq,
		maxMessages: maxMessages,
		logger:      logger,
	}, nil
}

func (b *Badger) EnqueueReceived(clientID string, receivedAt time.Time, msgs []Message) error {
	val, err := encMode.Marshal(msgs)
	if err != nil {
		return errors.Wrap(err, "store: encode received messages")
	}

	prefix := clientPrefix(recvPrefix, clientID)
	err = b.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(itemKey(prefix, uint64(receivedAt.UnixNano())), val); err != nil {
			return err
		}

		keys := prefixKeys(txn, prefix)
		excess := len(keys) - b.maxMessages
		for i := 0; i < excess; i++ {
			if err := txn.Delete(keys[i]); err != nil {
				return err
			}
		}
		if excess > 0 {
			level.Debug(b.logger).Log("event", "purged receptions", "client", clientID, "count", excess)
		}
		return nil
	})
	return errors.Wrapf(err, "store: enqueue received for %q", clientID)
}

// prefixKeys lists the keys under prefix in order
func prefixKeys(txn *badger.Txn, prefix []byte) [][]byte {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = prefix

	it := txn.NewIterator(opts)
	defer it.Close()

	var keys [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	return keys
}

func (b *Badger) LastReceived(clientID string) (map[int64][]Message, error) {
	prefix := clientPrefix(recvPrefix, clientID)
	var out map[int64][]Message

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			ts := int64(binary.BigEndian.Uint64(item.Key()[len(prefix):]))

			var msgs []Message
			err := item.Value(func(val []byte) error {
				return decMode.Unmarshal(val, &msgs)
			})
			if err != nil {
				return errors.Wrapf(err, "decode reception %d", ts)
			}

			if out == nil {
				out = make(map[int64][]Message)
			}
			out[ts] = msgs
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "store: last received for %q", clientID)
	}
	return out, nil
}

func (b *Badger) EnqueueToSend(clientID string, msgs []Message) error {
	if len(msgs) == 0 {
		return nil
	}

	val, err := encMode.Marshal(msgs)
	if err != nil {
		return errors.Wrap(err, "store: encode messages to send")
	}

	n, err := b.seq.Next()
	if err != nil {
		return errors.Wrap(err, "store: send sequence")
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(itemKey(clientPrefix(sendPrefix, clientID), n), val)
	})
	return errors.Wrapf(err, "store: enqueue to send for %q", clientID)
}

func (b *Badger) PopToSend(clientID string) ([]Message, error) {
	prefix := clientPrefix(sendPrefix, clientID)
	var out []Message

	err := b.db.Update(func(txn *badger.Txn) error {
		keys := prefixKeys(txn, prefix)
		for _, k := range keys {
			item, err := txn.Get(k)
			if err != nil {
				return err
			}

			var msgs []Message
			err = item.Value(func(val []byte) error {
				return decMode.Unmarshal(val, &msgs)
			})
			if err != nil {
				return errors.Wrap(err, "decode queued messages")
			}
			out = append(out, msgs...)

			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "store: pop to send for %q", clientID)
	}
	return out, nil
}

// Close releases the sequence lease and closes the database
func (b *Badger) Close() error {
	var result *multierror.Error
	if err := b.seq.Release(); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "store: release sequence"))
	}
	if err := b.db.Close(); err != nil {
		result = multierror.Append(result, errors.Wrap(err, "store: close badger"))
	}
	return result.ErrorOrNil()
}
