package dbx

import (
	"github.com/marcodd23/go-simpledb/pkg/errorx"
	"github.com/marcodd23/go-simpledb/pkg/validator"
)

// ConnConfig represents the credentials required to open a database connection.
//
// The values are immutable once handed to a manager: every new connection is opened with the
// same ConnConfig.
type ConnConfig struct {
	VpcDirectConnection bool
	Host                string
	Port                int32
	DBName              string `validate:"required"`
	User                string `validate:"required"`
	Password            string `validate:"required"`
	IsLocalEnv          bool
}

// Validate - check that the mandatory credentials are set.
func (c ConnConfig) Validate() error {
	if errs := validator.NewValidator().ValidateStruct(c); len(errs) > 0 {
		return errorx.NewDatabaseErrorWrapper(validator.NewValidationError(errs), "invalid connection config")
	}

	return nil
}
