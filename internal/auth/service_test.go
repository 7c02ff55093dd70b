package auth

import (
	"testing"

	. "go-chat-relay/pkg/chat"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to database: %v", err)
	}

	err = db.AutoMigrate(&User{}, &RefreshToken{})
	if err != nil {
		t.Fatalf("Failed to migrate database: %v", err)
	}

	return db
}

func TestAuthService_Register(t *testing.T) {
	db := setupTestDB(t)
	service := NewAuthService(db)

	tests := []struct {
		name        string
		username    string
		email       string
		password    string
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid registration",
			username:    "testuser",
			email:       "test@example.com",
			password:    "testpassword",
			expectError: false,
		},
		{
			name:        "empty username",
			username:    "",
			email:       "test2@example.com",
			password:    "testpassword",
			expectError: true,
			errorMsg:    "username cannot be empty",
		},
		{
			name:        "empty email",
			username:    "testuser",
			email:       "",
			password:    "testpassword",
			expectError: true,
			errorMsg:    "email cannot be empty",
		},
		{
			name:        "empty password",
			username:    "testuser",
			email:       "test3@example.com",
			password:    "",
			expectError: true,
			errorMsg:    "password cannot be empty",
		},
		{
			name:        "duplicate email",
			username:    "otheruser",
			email:       "test@example.com",
			password:    "testpassword",
			expectError: true,
			errorMsg:    "email already registered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := service.Register(tt.username, tt.email, tt.password)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
					return
				}
				if tt.errorMsg != "" && err.Error() != tt.errorMsg {
					t.Errorf("Expected error message '%s', got '%s'", tt.errorMsg, err.Error())
				}
				return
			}

			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}

			if user == nil {
				t.Error("Expected user to be created")
				return
			}

			if user.Username != tt.username {
				t.Errorf("Expected username '%s', got '%s'", tt.username, user.Username)
			}

			if user.Password == tt.password {
				t.Error("Password should be hashed, not stored in plain text")
			}

			if user.ID == "" {
				t.Error("User ID should be generated")
			}
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	db := setupTestDB(t)
	service := NewAuthService(db)

	_, err := service.Register("testuser", "test@example.com", "testpassword")
	if err != nil {
		t.Fatalf("Failed to register user: %v", err)
	}

	user, err := service.Login("test@example.com", "testpassword")
	if err != nil {
		t.Fatalf("Unexpected login error: %v", err)
	}
	if user.Username != "testuser" {
		t.Errorf("Expected username 'testuser', got '%s'", user.Username)
	}

	if _, err := service.Login("test@example.com", "wrongpassword"); err == nil {
		t.Error("Expected error for wrong password")
	}

	if _, err := service.Login("unknown@example.com", "testpassword"); err == nil {
		t.Error("Expected error for unknown email")
	}
}

func TestAuthService_RefreshTokens(t *testing.T) {
	db := setupTestDB(t)
	service := NewAuthService(db)

	user, err := service.Register("testuser", "test@example.com", "testpassword")
	if err != nil {
		t.Fatalf("Failed to register user: %v", err)
	}

	token, err := service.CreateRefreshToken(user.ID)
	if err != nil {
		t.Fatalf("Failed to create refresh token: %v", err)
	}
	if token == "" {
		t.Fatal("Expected non-empty refresh token")
	}

	validated, err := service.ValidateRefreshToken(token)
	if err != nil {
		t.Fatalf("Unexpected validation error: %v", err)
	}
	if validated.ID != user.ID {
		t.Errorf("Expected user %s, got %s", user.ID, validated.ID)
	}

	if _, err := service.ValidateRefreshToken("bogus"); err == nil {
		t.Error("Expected error for bogus refresh token")
	}

	if err := service.RevokeRefreshToken(token); err != nil {
		t.Fatalf("Unexpected revoke error: %v", err)
	}

	if _, err := service.ValidateRefreshToken(token); err == nil {
		t.Error("Expected error for revoked refresh token")
	}
}
