package main

import (
	"math/rand/v2"

	"github.com/student-index/sidx/index"
)

type WorkloadType string

const (
	OLTP      WorkloadType = "OLTP (90/10)"
	OLAP      WorkloadType = "OLAP (10/90)"
	Churn     WorkloadType = "Churn (50/50)"
	Reporting WorkloadType = "Reporting (Range)"
)

// ExecuteWorkload runs a mixed distribution of ops over keys in [0, keys).
func ExecuteWorkload(idx index.Index, wType WorkloadType, ops, keys int, rng *rand.Rand) {
	for i := 0; i < ops; i++ {
		choice := rng.IntN(100)
		key := rng.Int64N(int64(keys))

		switch wType {
		case OLTP:
			if choice < 90 {
				_, _ = idx.Search(key)
			} else {
				idx.Upsert(key, index.Locator(key))
			}
		case OLAP:
			if choice < 10 {
				_, _ = idx.Search(key)
			} else {
				idx.Upsert(key, index.Locator(key))
			}
		case Churn:
			if choice < 50 {
				idx.Delete(key)
			} else {
				_ = idx.Insert(key, index.Locator(key))
			}
		case Reporting:
			it := idx.Range(key, key+100)
			for it.Next() {
			}
			it.Close()
		}
	}
}
