package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"taskboard/models"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Login exchanges credentials for a bearer token and stores it.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var out LoginResponse
	if err := c.Do(ctx, http.MethodPost, "/api/login", Credentials{Email: email, Password: password}, &out); err != nil {
		return LoginResponse{}, err
	}
	if err := c.storage.Set(TokenKey, out.Token); err != nil {
		return LoginResponse{}, fmt.Errorf("store token: %w", err)
	}
	return out, nil
}

// Logout ends the server session and forgets the local token even if the
// server call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.Do(ctx, http.MethodPost, "/api/logout", nil, nil)
	if rmErr := c.storage.Remove(TokenKey); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}

// LogoutAll ends every session of the signed-in user and forgets the local token.
func (c *Client) LogoutAll(ctx context.Context) error {
	err := c.Do(ctx, http.MethodPost, "/api/logout?all=true", nil, nil)
	if rmErr := c.storage.Remove(TokenKey); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}

func (c *Client) Register(ctx context.Context, email, password string) error {
	return c.Do(ctx, http.MethodPost, "/api/register", Credentials{Email: email, Password: password}, nil)
}

type ListOptions struct {
	Completed *bool
	Priority  models.Priority
	Limit     int
	Offset    int
}

func (o ListOptions) query() string {
	q := url.Values{}
	if o.Completed != nil {
		q.Set("completed", strconv.FormatBool(*o.Completed))
	}
	if o.Priority != "" {
		q.Set("priority", string(o.Priority))
	}
	if o.Limit > 0 {
		q.Set("limit", strconv.Itoa(o.Limit))
	}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (c *Client) ListTasks(ctx context.Context, opts ListOptions) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.Do(ctx, http.MethodGet, "/api/tasks"+opts.query(), nil, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id int) (models.Task, error) {
	var t models.Task
	err := c.Do(ctx, http.MethodGet, taskPath(id), nil, &t)
	return t, err
}

func (c *Client) CreateTask(ctx context.Context, in models.TaskInput) (models.Task, error) {
	var t models.Task
	err := c.Do(ctx, http.MethodPost, "/api/tasks", in, &t)
	return t, err
}

func (c *Client) UpdateTask(ctx context.Context, task models.Task) (models.Task, error) {
	var t models.Task
	err := c.Do(ctx, http.MethodPut, taskPath(task.ID), task.Input(), &t)
	return t, err
}

func (c *Client) DeleteTask(ctx context.Context, id int) error {
	return c.Do(ctx, http.MethodDelete, taskPath(id), nil, nil)
}

func (c *Client) ToggleTask(ctx context.Context, id int) (models.Task, error) {
	var t models.Task
	err := c.Do(ctx, http.MethodPatch, taskPath(id)+"/toggle", nil, &t)
	return t, err
}

func taskPath(id int) string {
	return "/api/tasks/" + strconv.Itoa(id)
}
