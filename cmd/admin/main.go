package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/badoux/checkmail"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"mc21-server/internal/config"
	"mc21-server/pkg/db"
	"mc21-server/pkg/model"
	"mc21-server/pkg/store"
)

var command = flag.String("c", "player", "specifies the command (player)")

func main() {
	flag.Parse()

	switch *command {
	case "player":
		email := getEmail()
		if email == "" {
			os.Exit(1)
		}

		password := getPassword()
		if password == "" {
			os.Exit(1)
		}

		name, err := getInput("Name")
		if err != nil {
			logrus.WithError(err).Fatal("could not get answer")
		}

		if name == "" {
			name = "Floor Manager"
		}

		player, err := model.CreatePlayer(context.Background(), newStore(), email, name, password)
		if err != nil {
			logrus.WithError(err).Fatal("could not create player")
		}

		fmt.Printf("Created player %s\n", player.ID)
	default:
		logrus.Fatalf("unknown command: %s", *command)
	}
}

func newStore() store.Store {
	if config.Instance().Store == "memory" {
		logrus.Fatal("the admin tool requires the postgres store")
	}

	db.Migrate()
	return store.NewPostgres(db.Instance(), db.DSN())
}

func getPassword() string {
	for {
		fmt.Print("Password: ")
		pwBytes, err := term.ReadPassword(0)
		if err != nil {
			continue
		}
		fmt.Println("")

		password := strings.TrimRight(string(pwBytes), "\r\n")

		if password == "" {
			return ""
		}

		if len(password) < 6 {
			_, _ = fmt.Fprintf(os.Stderr, "password must be 6 or more characters\n")
			continue
		}

		return password
	}
}

func getEmail() string {
	for {
		fmt.Print("Email: ")
		reader := bufio.NewReader(os.Stdin)
		str, err := reader.ReadString('\n')
		if err != nil {
			logrus.WithError(err).Warn("could not read email")
		}

		str = strings.TrimRight(str, "\r\n")

		if str == "" {
			return ""
		}

		if err := checkmail.ValidateFormat(str); err != nil {
			_, _ = fmt.Fprintln(os.Stderr, err)
			continue
		}

		return str
	}
}

func getInput(question string) (string, error) {
	fmt.Printf("%s: ", question)
	reader := bufio.NewReader(os.Stdin)
	str, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	str = strings.TrimRight(str, "\r\n")

	return str, nil
}
