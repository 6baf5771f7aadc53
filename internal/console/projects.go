package console

import (
	"context"
	"errors"
	"fmt"
	"io"

	"tracker/internal/access"
	"tracker/internal/models"
)

// createProject asks for the project details and a manager, then opens it.
func (c *Console) createProject(ctx context.Context) error {
	name, err := c.ask("Project name: ")
	if err != nil {
		return err
	}
	desc, err := c.ask("Description: ")
	if err != nil {
		return err
	}

	managers, err := c.sess.ManagerCandidates(ctx)
	if err != nil {
		return err
	}
	var managerID int64
	if len(managers) > 0 {
		c.println("Choose a manager by number:")
		for i, m := range managers {
			c.println(fmt.Sprintf("%d - %s", i, m.Name))
		}
		idx, err := c.pick("Manager: ", len(managers))
		if err != nil {
			return err
		}
		managerID = managers[idx].ID
	}

	created, err := c.sess.CreateProject(ctx, name, desc, managerID)
	if err != nil {
		return err
	}
	c.ok("Project created: " + created.Project.Name)
	if !created.CreatorEnrolled {
		c.muted(fmt.Sprintf("You already participate in %d projects and were not added to this team.", models.MaxProjectsPerUser))
	}
	return c.projectMenu(ctx, created.Project.ID)
}

// listProjects prints every project with its manager and team size.
func (c *Console) listProjects(ctx context.Context) error {
	all, err := c.sess.Projects(ctx)
	if err != nil {
		return err
	}
	if len(all) == 0 {
		c.muted("No projects yet.")
		return nil
	}
	for i, p := range all {
		c.println(fmt.Sprintf("%d - %s | Manager: %s | Members: %d", i, p.Name, p.Manager.Name, len(p.Team)))
	}
	return nil
}

func (c *Console) openProject(ctx context.Context) error {
	all, err := c.sess.Projects(ctx)
	if err != nil {
		return err
	}
	if err := c.listProjects(ctx); err != nil || len(all) == 0 {
		return err
	}
	idx, err := c.pick("Project number to open: ", len(all))
	if err != nil {
		return err
	}
	return c.projectMenu(ctx, all[idx].ID)
}

func (c *Console) projectMenu(ctx context.Context, projectID int64) error {
	for {
		p, err := c.sess.Project(ctx, projectID)
		if err != nil {
			return err
		}
		c.title("PROJECT: " + p.Name)
		c.println("1. Add member (administrator/manager)")
		c.println("2. Add task")
		c.println("3. List tasks")
		c.println("4. Details")
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
			err = c.addMember(ctx, p)
		case 2:
			err = c.addTask(ctx, p)
		case 3:
			err = c.listTasks(ctx, p)
		case 4:
			c.details(p)
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

func (c *Console) addMember(ctx context.Context, p models.Project) error {
	if !c.sess.Can(access.AddMember) {
		return fmt.Errorf("add member: %w", models.ErrForbidden)
	}
	users, err := c.sess.Users(ctx)
	if err != nil {
		return err
	}
	c.println("Select a user to add:")
	for i, u := range users {
		c.println(fmt.Sprintf("%d - %s (%s)", i, u.Name, u.Role))
	}
	idx, err := c.pick("User: ", len(users))
	if err != nil {
		return err
	}
	if _, err := c.sess.AddMember(ctx, p.ID, users[idx].ID); err != nil {
		return err
	}
	c.ok("Member added!")
	return nil
}

func (c *Console) details(p models.Project) {
	c.println("Project: " + p.Name)
	c.println("Description: " + p.Description)
	c.println("Administrator: " + p.Administrator.Name)
	c.println("Manager: " + p.Manager.Name)
	c.println(fmt.Sprintf("Team: %d members", len(p.Team)))
	for _, u := range p.Team {
		c.muted("  - " + u.Name)
	}
}

func (c *Console) exportProjects(ctx context.Context) error {
	n, err := c.sess.Export(ctx)
	if err != nil {
		return err
	}
	c.ok(fmt.Sprintf("Exported %d records.", n))
	return nil
}
