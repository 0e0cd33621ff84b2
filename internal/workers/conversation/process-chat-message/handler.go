// internal/workers/conversation/process-chat-message/handler.go
package processchatmessage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "rental-chatbot/internal/common/errors"
	"rental-chatbot/internal/common/logger"
	"rental-chatbot/internal/common/metrics"
	"rental-chatbot/internal/common/observability"
	"rental-chatbot/internal/session"
)

const (
	TaskType = "process-chat-message"
)

type Handler struct {
	config       *Config
	sessions     *session.Manager
	obs          *observability.Observability
	errorHandler *apperrors.JobErrorHandler
	logger       logger.Logger
}

// NewHandler builds the handler. obs may be nil.
func NewHandler(config *Config, sessions *session.Manager, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		sessions:     sessions,
		obs:          obs,
		errorHandler: apperrors.NewJobErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()
	ctx, span := h.obs.StartSpan(ctx, TaskType)
	defer span.End()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, apperrors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)), start)
		return
	}
	if input.MessageID == "" {
		input.MessageID = strconv.FormatInt(job.Key, 10)
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err, start)
		return
	}

	h.completeJob(ctx, client, job, output, start)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, apperrors.NewInvalidInputError("input cannot be nil")
	}
	if strings.TrimSpace(input.Message) == "" {
		return nil, apperrors.NewInvalidInputError("message is required")
	}

	res, err := h.sessions.TurnOnce(ctx, input.SessionID, input.MessageID, input.Message)
	if err != nil {
		return nil, err
	}

	output := &Output{
		SessionID: res.SessionID,
		Replies:   make([]ReplyMessage, 0, len(res.Replies)),
		Ended:     res.Ended,
	}
	for _, r := range res.Replies {
		output.Replies = append(output.Replies, ReplyMessage{Intent: r.Intent, Text: r.Text})
		h.obs.RecordTurn(ctx, r.Intent)
	}

	h.logger.Info("message processed", map[string]interface{}{
		"sessionId":  output.SessionID,
		"replyCount": len(output.Replies),
		"ended":      output.Ended,
	})
	return output, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output, start time.Time) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, "completed")
	h.obs.RecordJobDuration(ctx, time.Since(start), "completed")
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, start time.Time) {
	code := apperrors.Normalize(err).Code
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(code)).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, "failed")
	h.obs.RecordJobDuration(ctx, time.Since(start), "failed")

	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
