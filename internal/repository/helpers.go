package repository

import (
	"database/sql"
	"fmt"
	"strings"
)

func sortColumn(requested string, allowed map[string]string, fallback string) string {
	if column, ok := allowed[requested]; ok {
		return column
	}
	return fallback
}

func sortOrder(requested string) string {
	order := strings.ToUpper(requested)
	if order != "ASC" && order != "DESC" {
		return "DESC"
	}
	return order
}

// expectAffected turns a zero-row write into sql.ErrNoRows so services can answer 404.
func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
