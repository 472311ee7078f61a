package model

// File is the metadata record for an uploaded tabular dataset. Every
// read, mutation or delete of it must pass the ownership check against
// OwnerID.
type File struct {
	ID         int64  `json:"id"`
	OwnerID    int64  `json:"owner_id"`
	Filename   string `json:"filename"`
	StorageKey string `json:"-"`
	Ctime      int64  `json:"upload_date"`
}
