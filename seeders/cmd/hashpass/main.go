// Печатает bcrypt-хеш пароля, чтобы вручную завести или сбросить пользователя в таблице users.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"hospital-equipment/pkg/utils"
)

func main() {
	password := flag.String("password", "", "Пароль, который нужно захешировать")
	flag.Parse()

	if *password == "" {
		log.Println("❌ Укажите пароль: go run ./seeders/cmd/hashpass -password 'НовыйПароль123'")
		os.Exit(2)
	}

	hashedPassword, err := utils.HashPassword(*password)
	if err != nil {
		log.Fatalf("Ошибка при генерации хеша: %v", err)
	}

	fmt.Println(hashedPassword)
}
