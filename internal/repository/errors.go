package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrTransient = errors.New("store temporarily unavailable")
)

// MySQL server errors worth retrying: lock wait timeout, deadlock, too many connections.
var retryableMySQLCodes = map[uint16]bool{1205: true, 1213: true, 1040: true}

// classify maps gorm/driver errors onto ErrNotFound / ErrTransient, keeping the cause.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if isTransient(err) {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return err
}

func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return retryableMySQLCodes[myErr.Number]
	}
	return false
}

// IsTransient reports whether err is a connection-level failure safe to retry.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// Page is 1-based paging with a capped limit.
type Page struct {
	Page  int
	Limit int
}

func (p Page) normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 50
	}
	if p.Limit > 200 {
		p.Limit = 200
	}
	return p
}

func (p Page) Offset() int {
	p = p.normalize()
	return (p.Page - 1) * p.Limit
}

func (p Page) Size() int {
	return p.normalize().Limit
}

// deactivate soft-deletes one row of m's table and clears its is_active flag.
// The flag is written with UpdateColumn so save hooks never run against the empty model.
func deactivate(db *gorm.DB, m interface{}, id uint) error {
	return classify(db.Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(m, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Unscoped().Model(m).Where("id = ?", id).UpdateColumn("is_active", false).Error
	}))
}
