package monitor

import "time"

type Status struct {
	Backend      bool      `json:"backend"`
	BackendError string    `json:"backend_error,omitempty"`
	Storage      bool      `json:"storage"`
	StorageName  string    `json:"storage_driver"`
	StorageSize  int       `json:"storage_records"`
	LastCheck    time.Time `json:"last_check"`
}
