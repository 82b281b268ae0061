// Package gate содержит точки принятия решений человеком.
//
// Контроллер конвертации вызывает DecisionProvider синхронно при
// предсказанной нехватке места; контроллер удаления запрашивает
// подтверждение через Confirmer перед единственной необратимой
// операцией системы. Терминальные реализации блокируются на stdin без
// таймаута - в безнадзорном запуске нехватка места не должна
// "рассасываться" сама.
package gate

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Decision - исход паузы при нехватке места.
type Decision int

const (
	// DecisionContinue - перемерить место и продолжить.
	DecisionContinue Decision = iota
	// DecisionForce - продолжить и больше не останавливаться
	// на предупреждениях до конца запуска.
	DecisionForce
	// DecisionAbort - сбросить журналы и корректно завершить запуск.
	DecisionAbort
)

// Prompt - контекст для принятия решения.
type Prompt struct {
	// EstimatedNeedMB - оценка потребности оставшихся файлов в МБ.
	EstimatedNeedMB float64

	// FreeMB - свободное место в МБ.
	FreeMB float64

	// RemainingFiles - сколько файлов осталось обработать.
	RemainingFiles int
}

// DecisionProvider принимает решение при предсказанной нехватке места.
type DecisionProvider interface {
	Decide(p Prompt) Decision
}

// Confirmer запрашивает явное подтверждение действия.
type Confirmer interface {
	Confirm(prompt string) bool
}

// Terminal - интерактивная реализация через stdin/stdout.
type Terminal struct {
	// in - источник ввода (по умолчанию os.Stdin).
	in io.Reader

	// out - вывод меню (по умолчанию os.Stdout).
	out io.Writer
}

// NewTerminal создаёт терминальную реализацию.
func NewTerminal(in io.Reader, out io.Writer) *Terminal {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	return &Terminal{in: in, out: out}
}

// Decide показывает меню из трёх вариантов и блокируется до ответа.
// Нераспознанный ввод трактуется как "продолжить": пользователь
// освободил место и просто нажал Enter.
func (t *Terminal) Decide(p Prompt) Decision {
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, "Конвертация ПРИОСТАНОВЛЕНА: предсказана нехватка места на диске.")
	fmt.Fprintf(t.out, "Для оставшихся %d файлов нужно примерно %.1f МБ, доступно %.1f МБ.\n",
		p.RemainingFiles, p.EstimatedNeedMB, p.FreeMB)
	fmt.Fprintln(t.out, "Варианты:")
	fmt.Fprintln(t.out, "1. Освободите место и нажмите Enter, чтобы продолжить")
	fmt.Fprintln(t.out, "2. Введите 'force', чтобы продолжить несмотря на предупреждение")
	fmt.Fprintln(t.out, "3. Введите 'exit', чтобы сохранить прогресс и выйти")

	answer := t.readLine("Ваш выбор: ")
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "exit":
		return DecisionAbort
	case "force":
		return DecisionForce
	default:
		return DecisionContinue
	}
}

// Confirm задаёт вопрос и требует явного "yes".
func (t *Terminal) Confirm(prompt string) bool {
	answer := t.readLine(prompt + " (yes/no): ")
	return strings.ToLower(strings.TrimSpace(answer)) == "yes"
}

// readLine читает одну строку ввода. EOF и ошибки чтения дают пустую
// строку - безопасный ответ по умолчанию.
func (t *Terminal) readLine(prompt string) string {
	fmt.Fprint(t.out, prompt)
	reader := bufio.NewReader(t.in)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return ""
	}
	return line
}

// Scripted - детерминированная реализация для тестов: возвращает
// заранее заданные ответы.
type Scripted struct {
	// Decisions - очередь решений; исчерпание очереди даёт Continue.
	Decisions []Decision

	// ConfirmAnswer - ответ на все Confirm.
	ConfirmAnswer bool

	// Prompts - записанные запросы (для проверок в тестах).
	Prompts []Prompt
}

// Decide возвращает очередное решение из очереди.
func (s *Scripted) Decide(p Prompt) Decision {
	s.Prompts = append(s.Prompts, p)
	if len(s.Decisions) == 0 {
		return DecisionContinue
	}
	d := s.Decisions[0]
	s.Decisions = s.Decisions[1:]
	return d
}

// Confirm возвращает заданный ответ.
func (s *Scripted) Confirm(string) bool {
	return s.ConfirmAnswer
}
