package main

import (
	"testing"

	"routinetest/internal/dto"
)

func TestRootCmd_Subcommands(t *testing.T) {
	root := rootCmd()

	want := []string{"migrate", "import-students", "export-exams", "create-admin"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}

	for _, name := range []string{"up", "down"} {
		cmd, _, err := root.Find([]string{"migrate", name})
		if err != nil || cmd.Name() != name {
			t.Errorf("migrate %q not registered", name)
		}
	}
}

func TestValidateRequest(t *testing.T) {
	valid := dto.CreateUserRequest{
		Username: "admin",
		Name:     "Administrator",
		Email:    "admin@example.com",
		Password: "password123",
		Role:     "admin",
	}
	if err := validateRequest(&valid); err != nil {
		t.Fatalf("expected valid request, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(r *dto.CreateUserRequest)
	}{
		{"bad email", func(r *dto.CreateUserRequest) { r.Email = "not-an-email" }},
		{"short password", func(r *dto.CreateUserRequest) { r.Password = "short" }},
		{"unknown role", func(r *dto.CreateUserRequest) { r.Role = "root" }},
		{"short username", func(r *dto.CreateUserRequest) { r.Username = "ab" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			if err := validateRequest(&r); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
