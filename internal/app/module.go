package app

import (
	"github.com/shandysiswandi/mfacore/internal/identity"
)

func (a *App) initModules() error {
	dep := identity.Dependency{
		DBConn:     a.dbConn,
		Throttle:   a.throttle,
		Messaging:  a.messaging,
		Goroutine:  a.goroutine,
		Config:     a.config,
		Instrument: a.ins,
		UID:        a.uid,
		Clock:      a.clock,
		Validator:  a.validator,
		Encryptor:  a.encryptor,
		CodeHash:   a.codeHash,
		Mail:       a.mail,
		SMS:        a.sms,
	}

	uc, err := identity.New(dep)
	if err != nil {
		return err
	}
	a.mfa = uc

	return nil
}
