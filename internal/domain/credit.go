package domain

import "time"

// StoredCredit пакет предоплаченных занятий. Одна единица оплачивает один счёт
type StoredCredit struct {
	ID             int64
	Ref            string
	OwnerIdentity  int64
	RemainingUnits int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
