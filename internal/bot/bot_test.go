package bot

import (
	"reflect"
	"testing"
)

func TestParseCommand(t *testing.T) {
	parser := NewCommandParser()

	tests := []struct {
		name      string
		text      string
		wantCmd   string
		wantArgs  []string
		isCommand bool
	}{
		{"восклицательный знак", "!смена", "смена", nil, true},
		{"точка", ".стоп", "стоп", nil, true},
		{"слэш", "/вип", "вип", nil, true},
		{"регистр приводится к нижнему", "!Поездка", "поездка", nil, true},
		{"аргументы", "!login секретный пароль", "login", []string{"секретный", "пароль"}, true},
		{"пробелы вокруг", "  !баланс  ", "баланс", nil, true},
		{"пробел после префикса", "! смена", "смена", nil, true},
		{"без префикса", "смена", "", nil, false},
		{"обычный текст", "привет, как дела?", "", nil, false},
		{"только префикс", "!", "", nil, false},
		{"пустая строка", "", "", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, isCommand := parser.ParseCommand(tt.text)

			if isCommand != tt.isCommand {
				t.Fatalf("isCommand = %v, ожидалось %v", isCommand, tt.isCommand)
			}
			if cmd != tt.wantCmd {
				t.Errorf("cmd = %q, ожидалось %q", cmd, tt.wantCmd)
			}
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("args = %v, ожидалось %v", args, tt.wantArgs)
			}
		})
	}
}
