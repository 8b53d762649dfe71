package repository

import (
	"database/sql"
	"errors"
)

// HandleNotFound converts sql.ErrNoRows into a nil row without error. Find*
// lookups across the portal treat absence as a normal outcome — an unknown
// share token or document number is the caller's decision to handle, not a
// database failure.
//
//	var token model.SharedAccessToken
//	err := r.db.GetContext(ctx, &token, query, value)
//	return HandleNotFound(&token, err)
func HandleNotFound[T any](result *T, err error) (*T, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}
