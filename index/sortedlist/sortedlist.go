// Package sortedlist is a sorted-slice index. It is the reference model the
// B+ tree is checked against and the baseline it is benchmarked against.
package sortedlist

import (
	"slices"

	"github.com/cockroachdb/errors"

	"github.com/student-index/sidx/index"
	"github.com/student-index/sidx/persist"
)

var _ index.Index = (*List)(nil)

var ErrDuplicateKey = index.ErrDuplicateKey

type List struct {
	Data []index.Entry
}

func New() *List {
	return &List{Data: make([]index.Entry, 0)}
}

func (l *List) find(key int64) (int, bool) {
	return slices.BinarySearchFunc(l.Data, key, func(e index.Entry, k int64) int {
		switch {
		case e.Key < k:
			return -1
		case e.Key > k:
			return 1
		}
		return 0
	})
}

func (l *List) Insert(key int64, v index.Locator) error {
	i, found := l.find(key)
	if found {
		return errors.Wrapf(ErrDuplicateKey, "key %d", key)
	}
	l.Data = slices.Insert(l.Data, i, index.Entry{Key: key, Value: v})
	return nil
}

func (l *List) Upsert(key int64, v index.Locator) (index.Locator, bool) {
	i, found := l.find(key)
	if found {
		prev := l.Data[i].Value
		l.Data[i].Value = v
		return prev, true
	}
	l.Data = slices.Insert(l.Data, i, index.Entry{Key: key, Value: v})
	return 0, false
}

func (l *List) Search(key int64) (index.Locator, bool) {
	if i, found := l.find(key); found {
		return l.Data[i].Value, true
	}
	return 0, false
}

func (l *List) Delete(key int64) bool {
	i, found := l.find(key)
	if !found {
		return false
	}
	l.Data = slices.Delete(l.Data, i, i+1)
	return true
}

func (l *List) Scan() []index.Entry { return slices.Clone(l.Data) }
func (l *List) Len() int            { return len(l.Data) }

func (l *List) Range(start, end int64) index.Iterator {
	i, _ := l.find(start)
	return &ListIterator{data: l.Data, cur: i - 1, end: end}
}

func (l *List) SaveTo(path string) error { return persist.Save(path, l.Data) }

func (l *List) LoadFrom(path string) error {
	data, err := persist.Load(path)
	if err != nil {
		return err
	}
	l.Data = data
	return nil
}

type ListIterator struct {
	data []index.Entry
	cur  int
	end  int64
}

func (it *ListIterator) Next() bool {
	it.cur++
	return it.cur < len(it.data) && it.data[it.cur].Key <= it.end
}

func (it *ListIterator) Key() int64           { return it.data[it.cur].Key }
func (it *ListIterator) Value() index.Locator { return it.data[it.cur].Value }
func (it *ListIterator) Error() error         { return nil }
func (it *ListIterator) Close() error         { return nil }
