package models

import "github.com/google/uuid"

// assignID fills a missing primary key before insert so both postgres and
// sqlite schemas can omit database-side uuid defaults.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
