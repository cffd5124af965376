package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/GoArmGo/BibFinder/internal/core/ports"
)

// StepName имя шага пайплайна загрузки, попадает в сообщение об ошибке для пользователя
type StepName string

const (
	StepUpload       StepName = "upload"
	StepNormalize    StepName = "normalize"
	StepWatermark    StepName = "watermark"
	StepMetadata     StepName = "metadata"
	StepBibDetection StepName = "bib_detection"
	StepPersist      StepName = "persist"
	StepFaceEnroll   StepName = "face_enrollment"
	StepBibDeferral  StepName = "bib_deferral"
)

const defaultCallBudget = 30 * time.Second

// StepOutcome тег результата шага
type StepOutcome int

const (
	OutcomeOK StepOutcome = iota
	OutcomeFatal
	OutcomeSoft
)

func (o StepOutcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeFatal:
		return "fatal"
	case OutcomeSoft:
		return "soft"
	default:
		return "unknown"
	}
}

// StepResult результат одного шага: Ok | FatalErr(step, cause) | SoftErr(step, cause)
type StepResult struct {
	Step    StepName
	Outcome StepOutcome
	Err     error
}

type failurePolicy int

const (
	abortOnFailure failurePolicy = iota
	continueOnFailure
)

type pipelineStep[S any] struct {
	name   StepName
	policy failurePolicy
	run    func(ctx context.Context, state S) error
}

// compensator отменяет побочные эффекты уже выполненных шагов
type compensator interface {
	writtenKeys() []string
}

// runSteps сворачивает упорядоченный список шагов.
// Каждый шаг получает свой таймаут; таймаут - обычная ошибка шага.
// Первая фатальная ошибка удаляет все записанные объекты и прерывает цепочку.
func runSteps[S compensator](
	ctx context.Context,
	steps []pipelineStep[S],
	state S,
	files ports.FileStorage,
	callTimeout time.Duration,
	logger *slog.Logger,
) ([]StepResult, error) {
	if callTimeout <= 0 {
		callTimeout = defaultCallBudget
	}

	results := make([]StepResult, 0, len(steps))
	for _, step := range steps {
		start := time.Now()

		stepCtx, cancel := context.WithTimeout(ctx, callTimeout)
		err := step.run(stepCtx, state)
		cancel()

		if err == nil {
			results = append(results, StepResult{Step: step.name, Outcome: OutcomeOK})
			logger.Debug("pipeline step done", "step", step.name, "duration_ms", time.Since(start).Milliseconds())
			continue
		}

		if step.policy == continueOnFailure {
			results = append(results, StepResult{Step: step.name, Outcome: OutcomeSoft, Err: err})
			logger.Warn("best-effort step failed", "step", step.name, "error", err)
			continue
		}

		results = append(results, StepResult{Step: step.name, Outcome: OutcomeFatal, Err: err})
		logger.Error("pipeline step failed", "step", step.name, "error", err)
		compensate(ctx, files, state.writtenKeys(), callTimeout, logger)
		return results, &StepError{Step: step.name, Err: err}
	}

	return results, nil
}

// compensate удаляет объекты, записанные до фатальной ошибки.
// Выполняется даже при отменённом родительском контексте.
func compensate(ctx context.Context, files ports.FileStorage, keys []string, timeout time.Duration, logger *slog.Logger) {
	if len(keys) == 0 {
		return
	}

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := files.DeleteFiles(cleanupCtx, keys); err != nil {
		logger.Error("compensating delete failed", "keys", keys, "error", err)
		return
	}
	logger.Info("compensating delete done", "keys", keys)
}

// deleteTemp удаляет временный объект независимо от исхода вызова
func deleteTemp(ctx context.Context, files ports.FileStorage, key string, timeout time.Duration, logger *slog.Logger) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := files.DeleteFile(cleanupCtx, key); err != nil {
		logger.Error("failed to delete temporary object", "key", key, "error", err)
	}
}
