package user

import (
	"context"

	"github.com/janisrealty/janis/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service that sends emails synchronously.
func NewServiceMock(conf *core.Config, repo Repository, mailSvc core.EmailService, logger core.Logger) ServiceInterface {
	svc := NewService(conf, repo, mailSvc, logger).(*service)
	return &serviceMock{service: *svc}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	// run synchronously
	svc.sendPasswordResetMail(usr)
	return nil
}
