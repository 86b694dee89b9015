package factory

import (
	"fmt"

	"github.com/mikey/scam-image-filter/internal/adapters/mail"
	"github.com/mikey/scam-image-filter/internal/config"
	"github.com/mikey/scam-image-filter/internal/core"
	"go.uber.org/zap"
)

// AuditFactory creates the removal audit notifier
type AuditFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewAuditFactory creates a new audit factory
func NewAuditFactory(cfg *config.Config, logger *zap.Logger) *AuditFactory {
	return &AuditFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateAuditNotifier returns the configured notifier, or nil when auditing is off
func (f *AuditFactory) CreateAuditNotifier() (core.AuditNotifier, error) {
	smtpCfg := f.cfg.GetSMTP()
	if !smtpCfg.Enabled {
		return nil, nil
	}

	if len(smtpCfg.To) == 0 {
		return nil, fmt.Errorf("audit.smtp.to must list at least one recipient")
	}

	f.logger.Info("Audit mail enabled",
		zap.String("address", smtpCfg.Address),
		zap.Strings("to", smtpCfg.To))

	return mail.NewSMTPNotifier(
		smtpCfg.Address,
		smtpCfg.From,
		smtpCfg.To,
		smtpCfg.Username,
		smtpCfg.Password,
		f.logger,
	), nil
}
