package disk_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/database/storage"
	"github.com/ardanlabs/ledger/foundation/blockchain/database/storage/disk"
	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_RoundTrip(t *testing.T) {
	t.Log("Given the need to save and load a ledger.")
	{
		for testID, algorithm := range signature.Algorithms() {
			f := func(t *testing.T) {
				l, err := database.NewWithConfig(database.Config{Difficulty: 1, Algorithm: algorithm})
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to create a ledger: %v", failed, testID, err)
				}

				for _, data := range []string{"hello", "", "with \"quotes\" and\nnewlines"} {
					b := l.NextBlock(data)
					b.Mine(l.Difficulty())
					if err := l.Append(b); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to append: %v", failed, testID, err)
					}
				}

				d := disk.New(filepath.Join(t.TempDir(), "nested", "blockchain.json"))
				if err := l.Save(d); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to save: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould be able to save.", success, testID)

				got, err := database.Load(d, nil)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould be able to load: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould be able to load.", success, testID)

				if got.Difficulty() != l.Difficulty() || got.Algorithm() != l.Algorithm() || got.Len() != l.Len() {
					t.Fatalf("\t%s\tTest %d:\tShould get back the same ledger settings.", failed, testID)
				}

				exp := l.Blocks()
				for i, b := range got.Blocks() {
					e := exp[i]
					if b.Index() != e.Index() || !b.Timestamp().Equal(e.Timestamp()) || b.Data() != e.Data() ||
						b.Nonce() != e.Nonce() || b.PrevHash() != e.PrevHash() || b.Hash() != e.Hash() {
						t.Logf("\t%s\tTest %d:\tgot: %s", failed, testID, b)
						t.Logf("\t%s\tTest %d:\texp: %s", failed, testID, e)
						t.Fatalf("\t%s\tTest %d:\tShould get back block %d field for field.", failed, testID, i)
					}
				}
				t.Logf("\t%s\tTest %d:\tShould get back every block field for field.", success, testID)

				if !got.IsValid() {
					t.Fatalf("\t%s\tTest %d:\tShould be valid after loading: %v", failed, testID, got.Validate())
				}
				t.Logf("\t%s\tTest %d:\tShould be valid after loading.", success, testID)
			}

			t.Run(algorithm, f)
		}
	}
}

func Test_LoadErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := disk.New(filepath.Join(dir, "missing.json")).Load(); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Should get ErrNotFound, got %v", err)
	}

	empty := filepath.Join(dir, "empty.json")
	if err := os.WriteFile(empty, []byte(" \n"), 0600); err != nil {
		t.Fatalf("Should be able to write file: %v", err)
	}
	if _, err := disk.New(empty).Load(); !errors.Is(err, storage.ErrEmpty) {
		t.Fatalf("Should get ErrEmpty, got %v", err)
	}

	garbage := filepath.Join(dir, "garbage.json")
	if err := os.WriteFile(garbage, []byte("{not json"), 0600); err != nil {
		t.Fatalf("Should be able to write file: %v", err)
	}
	_, err := disk.New(garbage).Load()
	if err == nil || errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrEmpty) {
		t.Fatalf("Should get a decode error, got %v", err)
	}

	noChain := filepath.Join(dir, "nochain.json")
	if err := os.WriteFile(noChain, []byte(`{"chain":[],"difficulty":1}`), 0600); err != nil {
		t.Fatalf("Should be able to write file: %v", err)
	}
	if _, err := database.Load(disk.New(noChain), nil); !errors.Is(err, database.ErrEmptyChain) {
		t.Fatalf("Should get ErrEmptyChain, got %v", err)
	}
}

func Test_SaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockchain.json")
	d := disk.New(path)

	l := database.New(1)
	for i := 0; i < 3; i++ {
		b := l.NextBlock("block")
		b.Mine(1)
		if err := l.Append(b); err != nil {
			t.Fatalf("Should be able to append: %v", err)
		}
	}
	if err := l.Save(d); err != nil {
		t.Fatalf("Should be able to save: %v", err)
	}

	small := database.New(1)
	if err := small.Save(d); err != nil {
		t.Fatalf("Should be able to save: %v", err)
	}

	got, err := database.Load(d, nil)
	if err != nil {
		t.Fatalf("Should be able to load: %v", err)
	}
	if got.Len() != 1 || got.Head().Hash() != small.Head().Hash() {
		t.Fatalf("Should replace the previous content.")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("Should be able to read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("Should not leave temp files behind, got %d entries", len(entries))
	}
}

func Test_FileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockchain.json")

	l := database.New(1)
	if err := l.Save(disk.New(path)); err != nil {
		t.Fatalf("Should be able to save: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Should be able to read file: %v", err)
	}

	for _, key := range []string{`"chain"`, `"difficulty": 1`, `"index": 0`, `"timestamp"`, `"data"`, `"nonce"`, `"prev_hash": "0"`, `"hash"`} {
		if !strings.Contains(string(data), key) {
			t.Fatalf("Should find %s in the document:\n%s", key, data)
		}
	}
}

func Test_LoadReferenceDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blockchain.json")

	// A document without an algorithm is read as sha256.
	b := database.NewBlock(0, database.GenesisData, signature.ZeroHash)
	b.Mine(0)
	bd := database.NewBlockData(*b)

	doc := `{"chain":[{"index":0,"timestamp":"` + bd.Timestamp.Format("2006-01-02T15:04:05.999999999Z07:00") +
		`","data":"Genesis Block","nonce":` + "0" + `,"prev_hash":"0","hash":"` + bd.Hash + `"}],"difficulty":0}`
	if err := os.WriteFile(path, []byte(doc), 0600); err != nil {
		t.Fatalf("Should be able to write file: %v", err)
	}

	l, err := database.Load(disk.New(path), nil)
	if err != nil {
		t.Fatalf("Should be able to load: %v", err)
	}
	if l.Algorithm() != signature.SHA256 || !l.IsValid() {
		t.Fatalf("Should load a valid sha256 ledger: %v", l.Validate())
	}
}
