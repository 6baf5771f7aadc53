package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"tracker/internal/models"
	"tracker/internal/session"
)

// addTask asks for the task fields and plans it.
func (c *Console) addTask(ctx context.Context, p models.Project) error {
	if len(p.Team) == 0 {
		return fmt.Errorf("the team is empty, add members first: %w", models.ErrInvalidInput)
	}
	desc, err := c.ask("Task description: ")
	if err != nil {
		return err
	}
	c.println("Select the responsible member:")
	for i, u := range p.Team {
		c.println(fmt.Sprintf("%d - %s", i, u.Name))
	}
	idx, err := c.pick("Responsible: ", len(p.Team))
	if err != nil {
		return err
	}
	start, err := c.ask("Start date (dd/mm/yyyy): ")
	if err != nil {
		return err
	}
	end, err := c.ask("Planned end date (dd/mm/yyyy): ")
	if err != nil {
		return err
	}
	rawPriority, err := c.ask("Priority (1=HIGH, 2=MEDIUM, 3=NORMAL, 4=LOW): ")
	if err != nil {
		return err
	}
	priority, _ := strconv.Atoi(rawPriority)

	if _, err := c.sess.AddTask(ctx, p.ID, session.TaskInput{
		Description:    desc,
		ResponsibleID:  p.Team[idx].ID,
		Start:          start,
		End:            end,
		PriorityChoice: priority,
	}); err != nil {
		return err
	}
	c.ok("Task added!")
	return nil
}

// listTasks prints the tasks after deadline evaluation and lets the user
// pick one to manage.
func (c *Console) listTasks(ctx context.Context, p models.Project) error {
	tasks, err := c.sess.ListTasks(ctx, p.ID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		c.muted("No tasks yet.")
		return nil
	}
	for i, t := range tasks {
		c.println(fmt.Sprintf("%d - %s", i, summary(t)))
	}
	idx, err := c.pick("Select a task to manage or -1 to go back: ", len(tasks))
	if err != nil {
		return err
	}
	return c.taskMenu(ctx, tasks[idx].ID)
}

func summary(t models.Task) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s | Resp: %s | Priority: %s | Status: %s", t.Description, t.Responsible.Name, t.Priority, t.Status)
	if t.Status == models.StatusOverdue && t.DelayReason != "" {
		fmt.Fprintf(&b, " | Delay: %s", t.DelayReason)
	}
	if t.Status == models.StatusCancelled {
		fmt.Fprintf(&b, " | Reason: %s", t.CancelReason)
	}
	return b.String()
}

func (c *Console) taskMenu(ctx context.Context, taskID int64) error {
	for {
		t, err := c.sess.Task(ctx, taskID)
		if err != nil {
			return err
		}
		c.title("TASK: " + summary(t))
		c.println("1. Start")
		c.println("2. Complete")
		c.println("3. Cancel")
		c.println("4. Notifications")
		c.println("5. Back")
		choice, err := c.askInt("Choose: ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return err
			}
			c.fail(err)
			continue
		}

		switch choice {
		case 1:
			_, err = c.sess.StartTask(ctx, taskID)
		case 2:
			err = c.complete(ctx, taskID)
		case 3:
			err = c.cancel(ctx, taskID)
		case 4:
			err = c.history(ctx, taskID)
		case 5:
			return nil
		default:
			err = fmt.Errorf("invalid option: %w", models.ErrInvalidInput)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return err
			}
			c.fail(err)
		}
	}
}

// complete runs the two-phase completion, asking for a delay reason only
// when the task is late.
func (c *Console) complete(ctx context.Context, taskID int64) error {
	plan, err := c.sess.BeginCompletion(ctx, taskID)
	if err != nil {
		return err
	}
	var reason string
	if plan.Late {
		c.muted("Task completed late. Please provide the reason:")
		if reason, err = c.askRaw("Delay reason: "); err != nil {
			return err
		}
	}
	res, err := c.sess.Complete(ctx, taskID, reason)
	if err != nil {
		return err
	}
	c.ok(fmt.Sprintf("Task marked %s.", res.Task.Status))
	c.printNotifications(res.Notifications)
	return nil
}

func (c *Console) cancel(ctx context.Context, taskID int64) error {
	reason, err := c.askRaw("Cancellation reason: ")
	if err != nil {
		return err
	}
	res, err := c.sess.Cancel(ctx, taskID, reason)
	if err != nil {
		return err
	}
	c.ok("Task cancelled.")
	c.printNotifications(res.Notifications)
	return nil
}

func (c *Console) history(ctx context.Context, taskID int64) error {
	notes, err := c.sess.Notifications(ctx, taskID)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		c.muted("No notifications for this task.")
		return nil
	}
	c.printNotifications(notes)
	return nil
}

func (c *Console) printNotifications(notes []models.Notification) {
	c.title("E-MAIL NOTIFICATION (simulated)")
	for _, n := range notes {
		c.println("To: " + strings.Join(n.Recipients, ", "))
		c.println("Subject: " + n.Subject)
		c.println("Message: " + n.Body)
		c.muted("-----------------------------------")
	}
}
