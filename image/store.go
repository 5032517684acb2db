package image

import (
	"slices"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/ezrec/uarc/word"
)

var bucketImages = []byte("images")

// Entry describes a stored image.
type Entry struct {
	Name  string
	ID    string
	Width word.Width
	Size  int // Program bytes.
}

// Store is a named library of images, kept in a bbolt database.
type Store struct {
	db *bolt.DB
}

// OpenStore opens or creates a library.
func OpenStore(path string) (store *Store, err error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketImages)
		return err
	})
	if err != nil {
		db.Close()
		return
	}

	store = &Store{db: db}
	return
}

// Close closes the library.
func (store *Store) Close() error {
	return store.db.Close()
}

// Put stores an image under name, replacing any previous image.
func (store *Store) Put(name string, img *Image) (err error) {
	if len(name) == 0 {
		err = ErrNameInvalid
		return
	}

	data, err := img.Bytes()
	if err != nil {
		return
	}

	return store.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketImages).Put([]byte(name), data)
	})
}

// Get loads the image stored under name.
func (store *Store) Get(name string) (img *Image, err error) {
	err = store.db.View(func(tx *bolt.Tx) (err error) {
		data := tx.Bucket(bucketImages).Get([]byte(name))
		if data == nil {
			return ErrImageNotFound
		}
		// data is only valid for the life of the transaction.
		img, err = Parse(slices.Clone(data))
		return
	})

	return
}

// Delete removes the image stored under name.
func (store *Store) Delete(name string) (err error) {
	return store.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketImages)
		if bucket.Get([]byte(name)) == nil {
			return ErrImageNotFound
		}
		return bucket.Delete([]byte(name))
	})
}

// List describes every stored image, in name order.
func (store *Store) List() (entries []Entry, err error) {
	err = store.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketImages).ForEach(func(key, value []byte) error {
			img, err := Parse(slices.Clone(value))
			if err != nil {
				return err
			}
			entries = append(entries, Entry{
				Name:  string(key),
				ID:    img.ID(),
				Width: img.Width,
				Size:  len(img.Program),
			})
			return nil
		})
	})

	return
}
