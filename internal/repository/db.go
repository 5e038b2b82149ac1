package repository

import "gorm.io/gorm"

// conn picks the transaction when one is given, the base handle otherwise.
func conn(db, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return db
}
