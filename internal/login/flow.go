// internal/login/flow.go

// Package login drives the scripted Google sign-in sequence and coordinates
// it against the network tap that captures the Growtopia token.
package login

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Lupen-dev/Mori/api/schemas"
	"github.com/Lupen-dev/Mori/internal/config"
)

// Page is the capability set the flow needs from the browser session:
// navigate, click, type. Each call is fallible and bounded by the context the
// flow passes in.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, selector string) error
	Type(ctx context.Context, selector, text string) error
}

const (
	googleSignInURL   = "https://accounts.google.com/signin/v2/identifier"
	growtopiaLoginURL = "https://www.growtopiagame.com/google/login"

	emailInputSelector    = "#identifierId"
	emailNextSelector     = "#identifierNext"
	passwordInputSelector = `input[name="password"]`
	passwordNextSelector  = "#passwordNext"
	recoveryInputSelector = `input[name="knowledgePreregisteredEmailResponse"]`
	recoveryNextSelector  = `//button/span[text()='Next']`
)

// flowStep is one entry of the scripted sequence. Optional steps tolerate
// provider UI variants: their failure is logged and the flow continues.
// preSettle is slept before the interaction, settle after a successful one,
// both to let client-side transitions finish around it.
type flowStep struct {
	name      string
	required  bool
	preSettle time.Duration
	settle    time.Duration
	run       func(ctx context.Context) error
}

// Flow executes the login step sequence against a Page.
type Flow struct {
	page   Page
	creds  schemas.Credentials
	cfg    config.LoginConfig
	logger *zap.Logger

	// sleep is injectable so tests don't pay for real settle delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewFlow builds a flow for one login attempt.
func NewFlow(page Page, creds schemas.Credentials, cfg config.LoginConfig, logger *zap.Logger) *Flow {
	return &Flow{
		page:   page,
		creds:  creds,
		cfg:    cfg,
		logger: logger.Named("flow"),
		sleep:  sleepCtx,
	}
}

// Run executes the steps strictly in order. A failed required step aborts the
// attempt with an error naming the step; a failed optional step is skipped,
// including its settle delay.
func (f *Flow) Run(ctx context.Context) error {
	for _, step := range f.steps() {
		f.logger.Debug("Running step.", zap.String("step", step.name), zap.Bool("required", step.required))

		if step.preSettle > 0 {
			if err := f.sleep(ctx, step.preSettle); err != nil {
				return err
			}
		}

		if err := step.run(ctx); err != nil {
			if step.required {
				return fmt.Errorf("%s: %w", step.name, err)
			}
			f.logger.Debug("Optional step skipped.", zap.String("step", step.name), zap.Error(err))
			continue
		}

		if step.settle > 0 {
			if err := f.sleep(ctx, step.settle); err != nil {
				return err
			}
		}
	}

	f.logger.Info("Login flow completed.")
	return nil
}

// steps assembles the ordered step table for this attempt. The recovery-email
// steps only exist when the credentials carry a recovery address.
func (f *Flow) steps() []flowStep {
	steps := []flowStep{
		{
			name:     "open Google sign-in page",
			required: true,
			settle:   f.cfg.StepSettle,
			run: func(ctx context.Context) error {
				return f.navigate(ctx, googleSignInURL)
			},
		},
		{
			name:     "enter email",
			required: true,
			run: func(ctx context.Context) error {
				return f.typeInto(ctx, emailInputSelector, f.creds.Email, f.cfg.RequiredElementTimeout)
			},
		},
		{
			name:   "click email next button",
			settle: f.cfg.StepSettle,
			run: func(ctx context.Context) error {
				return f.click(ctx, emailNextSelector, f.cfg.OptionalElementTimeout)
			},
		},
		{
			name:     "enter password",
			required: true,
			run: func(ctx context.Context) error {
				return f.typeInto(ctx, passwordInputSelector, f.creds.Password, f.cfg.RequiredElementTimeout)
			},
		},
		{
			name:   "click password next button",
			settle: f.cfg.StepSettle,
			run: func(ctx context.Context) error {
				return f.click(ctx, passwordNextSelector, f.cfg.OptionalElementTimeout)
			},
		},
	}

	if f.creds.RecoveryEmail != "" {
		steps = append(steps,
			flowStep{
				name: "enter recovery email",
				run: func(ctx context.Context) error {
					return f.typeInto(ctx, recoveryInputSelector, f.creds.RecoveryEmail, f.cfg.OptionalElementTimeout)
				},
			},
			flowStep{
				name:   "click recovery next button",
				settle: f.cfg.StepSettle,
				run: func(ctx context.Context) error {
					return f.click(ctx, recoveryNextSelector, f.cfg.OptionalElementTimeout)
				},
			},
		)
	}

	return append(steps,
		flowStep{
			name:      "open Growtopia login page",
			required:  true,
			preSettle: f.cfg.FinalSettle,
			settle:    f.cfg.FinalSettle,
			run: func(ctx context.Context) error {
				return f.navigate(ctx, growtopiaLoginURL)
			},
		},
	)
}

func (f *Flow) navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, f.cfg.NavigationTimeout)
	defer cancel()
	return f.page.Navigate(navCtx, url)
}

func (f *Flow) click(ctx context.Context, selector string, timeout time.Duration) error {
	clickCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return f.page.Click(clickCtx, selector)
}

func (f *Flow) typeInto(ctx context.Context, selector, text string, timeout time.Duration) error {
	typeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return f.page.Type(typeCtx, selector, text)
}

// sleepCtx sleeps for d unless the context is canceled first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
