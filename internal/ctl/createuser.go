package ctl

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mvoronin/parceltrack/internal/logging"
	"github.com/mvoronin/parceltrack/internal/server/models"
	"github.com/mvoronin/parceltrack/internal/server/repositories/repomanager"
	"github.com/mvoronin/parceltrack/internal/server/services"
)

var createUserRole string

func init() {
	rootCmd.AddCommand(createUserCmd)
	createUserCmd.Flags().StringVar(&createUserRole, "role", "customer", "Account role: admin, agent or customer")
}

var createUserCmd = &cobra.Command{
	Use:   "create-user <username>",
	Short: "Create an account, prompting for the password",
	Args:  cobra.ExactArgs(1),
	RunE:  runCreateUser,
}

// readPassword prompts twice on the controlling terminal so the password
// never appears in shell history or process listings.
func readPassword() (string, error) {
	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}

	fmt.Fprint(os.Stderr, "Repeat password: ")
	second, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}

	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	return string(first), nil
}

func runCreateUser(cmd *cobra.Command, args []string) error {

	role, err := models.ParseRole(createUserRole)
	if err != nil {
		return err
	}

	password, err := readPassword()
	if err != nil {
		return err
	}

	rm, err := repomanager.NewPostgresRepositoryManager(cmd.Context(), resolveDSN())
	if err != nil {
		return err
	}
	defer rm.Close()

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc := services.NewUserService(rm.Users(), rm.RefreshTokens(), nil, time.Minute, time.Minute, logger)

	user, err := svc.Register(cmd.Context(), args[0], password, role)
	if err != nil {
		return err
	}

	fmt.Printf("created %s (%s) id=%s\n", user.UserName, user.Role, user.ID)
	return nil
}
