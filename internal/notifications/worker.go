package notifications

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/riverqueue/river"

	"github.com/studioloop/backend/internal/observability"
)

// FreelancerWorker emails the assigned freelancer.
type FreelancerWorker struct {
	river.WorkerDefaults[NotifyFreelancerArgs]
	email Sender
}

func NewFreelancerWorker(email Sender) *FreelancerWorker {
	return &FreelancerWorker{email: email}
}

func (w *FreelancerWorker) Work(ctx context.Context, job *river.Job[NotifyFreelancerArgs]) error {
	args := job.Args
	if args.FreelancerEmail == "" {
		slog.Warn("freelancer has no email, skipping notification", "task_id", args.TaskID, "freelancer_id", args.FreelancerID)
		return nil
	}

	subject := "New task assigned: " + args.TaskTitle
	if args.Urgency.IsUrgent() {
		subject = "[" + string(args.Urgency) + "] " + subject
	}
	err := w.email.Send(ctx, Message{
		Channel: ChannelEmail,
		To:      args.FreelancerEmail,
		Subject: subject,
		Body: fmt.Sprintf("Hi %s, the task %q (%s) has been assigned to you.",
			args.FreelancerName, args.TaskTitle, args.TaskID),
	})
	observability.ObserveNotification(ChannelEmail, err)
	if err != nil {
		slog.Error("freelancer notification failed", "task_id", args.TaskID, "error", err)
		return err
	}
	return nil
}

// AdminWorker tells every configured admin recipient about a new task.
// Recipients containing "@" get email; anything else is treated as a WhatsApp number.
type AdminWorker struct {
	river.WorkerDefaults[NotifyAdminsArgs]
	email      Sender
	whatsapp   Sender
	recipients []string
}

func NewAdminWorker(email, whatsapp Sender, recipients []string) *AdminWorker {
	return &AdminWorker{email: email, whatsapp: whatsapp, recipients: recipients}
}

func (w *AdminWorker) Work(ctx context.Context, job *river.Job[NotifyAdminsArgs]) error {
	args := job.Args
	if len(w.recipients) == 0 {
		return nil
	}
	body := adminSummary(args)

	var failed []string
	for _, to := range w.recipients {
		to = strings.TrimSpace(to)
		if to == "" {
			continue
		}
		channel, sender := ChannelWhatsApp, w.whatsapp
		if strings.Contains(to, "@") {
			channel, sender = ChannelEmail, w.email
		}
		err := sender.Send(ctx, Message{Channel: channel, To: to, Subject: "New task: " + args.TaskTitle, Body: body})
		observability.ObserveNotification(channel, err)
		if err != nil {
			slog.Error("admin notification failed", "task_id", args.TaskID, "to", to, "channel", channel, "error", err)
			failed = append(failed, to)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("admin notification failed for %d of %d recipients", len(failed), len(w.recipients))
	}
	return nil
}

func adminSummary(a NotifyAdminsArgs) string {
	switch {
	case a.FreelancerID == nil:
		return fmt.Sprintf("Task %q (%s, %s) was created with no approved freelancer available; it is PENDING.", a.TaskTitle, a.TaskID, a.Urgency)
	case a.IsFallback:
		return fmt.Sprintf("Task %q (%s, %s) was force-assigned to %s; no candidate met availability constraints.", a.TaskTitle, a.TaskID, a.Urgency, *a.FreelancerID)
	default:
		return fmt.Sprintf("Task %q (%s, %s) was assigned to %s with match score %.2f.", a.TaskTitle, a.TaskID, a.Urgency, *a.FreelancerID, a.MatchScore)
	}
}
