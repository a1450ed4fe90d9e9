package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lexwebinar/backend/internal/emaillogs"
	"github.com/lexwebinar/backend/internal/models"
	"github.com/lexwebinar/backend/pkg/mailer"
	"github.com/lexwebinar/backend/pkg/queue"
)

// EmailProcessor processes transactional email jobs: send via SES, record the
// attempt in email_logs.
type EmailProcessor struct {
	logs   *emaillogs.Repository
	mail   *mailer.Mailer
	queue  *queue.Queue
	logger *zap.Logger
}

// NewEmailProcessor creates an email job processor.
func NewEmailProcessor(logs *emaillogs.Repository, mail *mailer.Mailer, q *queue.Queue, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{logs: logs, mail: mail, queue: q, logger: logger}
}

// Process executes one email job.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeEmail {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	log := &models.EmailLog{
		WebinarID:      payload.WebinarID,
		RegistrationID: payload.RegistrationID,
		EmailType:      payload.EmailType,
		RecipientEmail: payload.RecipientEmail,
		Subject:        payload.Subject,
		Status:         models.EmailStatusQueued,
	}
	if err := p.logs.Insert(ctx, log); err != nil {
		p.logger.Error("insert email log failed", zap.Error(err))
	}

	if err := p.mail.Send(ctx, payload.RecipientEmail, payload.Subject, payload.BodyHTML); err != nil {
		if log.ID != uuid.Nil {
			if dbErr := p.logs.MarkFailed(ctx, log.ID, err.Error()); dbErr != nil {
				p.logger.Error("mark email failed errored", zap.Error(dbErr))
			}
		}
		return fmt.Errorf("send email: %w", err)
	}

	if log.ID != uuid.Nil {
		if err := p.logs.MarkSent(ctx, log.ID, time.Now()); err != nil {
			p.logger.Error("mark email sent errored", zap.Error(err))
		}
	}
	p.logger.Info("email sent",
		zap.String("email_type", payload.EmailType),
		zap.String("recipient", payload.RecipientEmail))
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, _, err := p.queue.Dequeue(ctx)
		if err != nil {
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		p.logger.Debug("processing job", zap.String("job_id", job.ID), zap.String("type", string(job.Type)))
		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("job failed", zap.String("job_id", job.ID), zap.Error(err))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry enqueue failed", zap.Error(reErr))
			}
			time.Sleep(queue.RetryBackoff)
			continue
		}
	}
}
