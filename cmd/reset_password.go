package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anoixa/clone-gallery/config"
	"github.com/anoixa/clone-gallery/internal/app"
	"github.com/anoixa/clone-gallery/utils"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// resetPasswordCmd 重置用户密码
var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password <email|username>",
	Short: "Reset a user's password",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := runResetPassword(args[0]); err != nil {
			utils.Log.Fatalf("Reset password failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(resetPasswordCmd)
}

func runResetPassword(identifier string) error {
	password, err := promptPassword()
	if err != nil {
		return err
	}

	container := app.NewContainer(config.Get())
	if err := container.InitDatabase(); err != nil {
		return err
	}
	defer func() { _ = container.Close() }()

	credentials, err := container.Credentials()
	if err != nil {
		return err
	}
	user, err := credentials.ResetPassword(context.Background(), identifier, password)
	if err != nil {
		return err
	}
	fmt.Printf("Password updated for %s\n", user.Username)
	return nil
}

// promptPassword 终端下不回显读取两次，非终端从标准输入读一行
func promptPassword() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Print("New password: ")
	first, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	fmt.Print("Confirm password: ")
	second, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}
