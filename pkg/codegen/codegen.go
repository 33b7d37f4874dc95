// Package codegen выдаёт человекочитаемые коды журнала, QR-метки и коды оборудования.
package codegen

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	qrPrefix        = "QR-"
	equipmentPrefix = "EQ"
)

// Пространство автоматических кодов. Клиентские коды в него не попадают.
var equipmentCodePattern = regexp.MustCompile(`(?i)^\s*` + equipmentPrefix + `\d+\s*$`)

type Generator struct {
	prefix string
	now    func() time.Time
	random func() string
}

func New(prefix string) *Generator {
	return &Generator{
		prefix: prefix,
		now:    time.Now,
		random: randomHex,
	}
}

// RegistrationLogCode - код записи о регистрации: префикс и ID оборудования из шести цифр.
func (g *Generator) RegistrationLogCode(equipmentID uint64) string {
	return fmt.Sprintf("%s%06d", g.prefix, equipmentID)
}

// TransitionLogCode - код записи о въезде/выезде. Миллисекунды UTC плюс случайный суффикс,
// поэтому два вызова в одну миллисекунду дают разные коды.
func (g *Generator) TransitionLogCode() string {
	return fmt.Sprintf("%s%d-%s", g.prefix, g.now().UTC().UnixMilli(), g.random()[:8])
}

// QRToken - метка для часто посещающего оборудования.
func (g *Generator) QRToken() string {
	return qrPrefix + strings.ToUpper(g.random()[:12])
}

// EquipmentCode - код оборудования по его ID, если клиент не передал свой.
func EquipmentCode(id uint64) string {
	return fmt.Sprintf("%s%03d", equipmentPrefix, id)
}

// IsEquipmentCode сообщает, что код имеет вид автоматического кода оборудования (EQ и цифры).
func IsEquipmentCode(code string) bool {
	return equipmentCodePattern.MatchString(code)
}

func randomHex() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
