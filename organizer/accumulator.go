package organizer

import (
	"github.com/hashicorp/go-memdb"

	"m3u-stream-harvester/checker"
)

// workingStream is the accumulator row. Key mirrors the memoization key, so
// a tolerated same-key duplicate probe overwrites instead of duplicating.
type workingStream struct {
	Key     string
	Country string
	Result  *checker.StreamResult
}

// Accumulator collects working stream results as probes finish. Backed by an
// in-memory database so the organizer and the checkpointer read consistent
// snapshots while probers keep appending.
type Accumulator struct {
	db *memdb.MemDB
}

func NewAccumulator() (*Accumulator, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			"working": {
				Name: "working",
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Key"},
					},
					"country": {
						Name:    "country",
						Indexer: &memdb.StringFieldIndex{Field: "Country"},
					},
				},
			},
		},
	}

	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, err
	}
	return &Accumulator{db: db}, nil
}

// Add stores one working result.
func (a *Accumulator) Add(result *checker.StreamResult) error {
	key := result.URL
	if result.Info != nil {
		key = result.Info.ChannelName + "_" + result.URL
	}

	txn := a.db.Txn(true)
	if err := txn.Insert("working", &workingStream{
		Key:     key,
		Country: result.Country,
		Result:  result,
	}); err != nil {
		txn.Abort()
		return err
	}
	txn.Commit()
	return nil
}

// All returns a snapshot of every accumulated result.
func (a *Accumulator) All() ([]*checker.StreamResult, error) {
	txn := a.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get("working", "id")
	if err != nil {
		return nil, err
	}

	var results []*checker.StreamResult
	for raw := it.Next(); raw != nil; raw = it.Next() {
		results = append(results, raw.(*workingStream).Result)
	}
	return results, nil
}

// ByCountry returns the snapshot restricted to one country bucket.
func (a *Accumulator) ByCountry(country string) ([]*checker.StreamResult, error) {
	txn := a.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get("working", "country", country)
	if err != nil {
		return nil, err
	}

	var results []*checker.StreamResult
	for raw := it.Next(); raw != nil; raw = it.Next() {
		results = append(results, raw.(*workingStream).Result)
	}
	return results, nil
}

func (a *Accumulator) Count() int {
	txn := a.db.Txn(false)
	defer txn.Abort()

	it, err := txn.Get("working", "id")
	if err != nil {
		return 0
	}

	n := 0
	for raw := it.Next(); raw != nil; raw = it.Next() {
		n++
	}
	return n
}
