// Package entity defines the domain models for the symbollist feature.
package entity

import (
	"strings"
	"time"
)

// Symbol is a tradable security listed in the search box and ingested daily.
type Symbol struct {
	ID        uint      `gorm:"primaryKey"`
	Code      string    `gorm:"size:32;not null;uniqueIndex"`
	Name      string    `gorm:"size:255;not null"`
	Market    string    `gorm:"size:100;not null;default:''"`
	IsActive  bool      `gorm:"not null;default:true"`
	SortKey   int       `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (Symbol) TableName() string {
	return "symbols"
}

// Matches は q がコードの前方一致、または名称の部分一致であれば true を返します（大文字小文字は無視）。
// 空の q はすべてに一致します。
func (s Symbol) Matches(q string) bool {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return true
	}
	return strings.HasPrefix(strings.ToLower(s.Code), q) ||
		strings.Contains(strings.ToLower(s.Name), q)
}
