// Package diskspace следит за свободным местом и предсказывает его нехватку.
package diskspace

import (
	"github.com/kwad-pylot/Raw-Image-Converter/internal/observer"
)

// Status - классификация свободного места относительно порога R:
// меньше R - critical, меньше 2R - warning, иначе ok.
type Status string

const (
	// StatusCritical - свободного места меньше порога.
	StatusCritical Status = "critical"
	// StatusWarning - свободного места меньше двойного порога.
	StatusWarning Status = "warning"
	// StatusOK - места достаточно.
	StatusOK Status = "ok"
)

// Частота проверок в файлах для каждого статуса.
// Счётчик ведёт контроллер, монитор лишь сообщает интервал.
const (
	intervalCritical = 1
	intervalWarning  = 3
	intervalOK       = 5
)

// maxSamples - размер скользящего окна размеров выходных файлов.
const maxSamples = 50

// minSamplesForPrediction - минимум наблюдений для включения предсказания.
const minSamplesForPrediction = 5

// Monitor измеряет свободное место в директории, классифицирует его и
// оценивает потребность оставшихся файлов по средним размерам уже
// полученных JPEG.
type Monitor struct {
	// dir - измеряемая директория.
	dir string

	// requiredMB - требуемый запас места в МБ.
	requiredMB int

	// obs - наблюдатель для ошибок измерения.
	obs observer.Observer

	// freeFn - функция запроса свободного места.
	// Подменяется в тестах; по умолчанию - платформенная реализация.
	freeFn func(dir string) (uint64, error)

	// samples - размеры последних выходных файлов в МБ.
	samples []float64

	// lastFreeMB - свободное место на момент последней проверки.
	lastFreeMB float64

	// lastStatus - результат последней классификации.
	lastStatus Status
}

// New создаёт Monitor для указанной директории.
func New(dir string, requiredMB int, obs observer.Observer) *Monitor {
	if obs == nil {
		obs = observer.Nop{}
	}
	return &Monitor{
		dir:        dir,
		requiredMB: requiredMB,
		obs:        obs,
		freeFn:     freeBytes,
		lastStatus: StatusOK,
	}
}

// SetFreeFunc подменяет функцию запроса свободного места (для тестов).
func (m *Monitor) SetFreeFunc(fn func(dir string) (uint64, error)) {
	m.freeFn = fn
}

// Classify классифицирует свободное место относительно порога.
func Classify(freeMB float64, requiredMB int) Status {
	r := float64(requiredMB)
	switch {
	case freeMB < r:
		return StatusCritical
	case freeMB < 2*r:
		return StatusWarning
	default:
		return StatusOK
	}
}

// Check измеряет свободное место и классифицирует его.
// Ошибка измерения трактуется консервативно: critical и 0 МБ -
// лучше лишний раз остановиться, чем молча продолжить.
func (m *Monitor) Check() (freeMB float64, status Status) {
	free, err := m.freeFn(m.dir)
	if err != nil {
		m.obs.Error("Не удалось проверить свободное место в %s: %v", m.dir, err)
		m.lastFreeMB = 0
		m.lastStatus = StatusCritical
		return 0, StatusCritical
	}

	freeMB = float64(free) / (1024 * 1024)
	status = Classify(freeMB, m.requiredMB)

	switch status {
	case StatusCritical:
		m.obs.Warn("Мало свободного места: доступно %.2f МБ, рекомендуется %d МБ",
			freeMB, m.requiredMB)
	case StatusWarning:
		m.obs.Info("Свободное место на исходе: доступно %.2f МБ", freeMB)
	}

	m.lastFreeMB = freeMB
	m.lastStatus = status
	return freeMB, status
}

// Observe добавляет размер очередного выходного файла в окно наблюдений.
func (m *Monitor) Observe(sizeMB float64) {
	m.samples = append(m.samples, sizeMB)
	if len(m.samples) > maxSamples {
		m.samples = m.samples[len(m.samples)-maxSamples:]
	}
}

// AverageSampleMB возвращает средний размер выходного файла в МБ.
func (m *Monitor) AverageSampleMB() float64 {
	if len(m.samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range m.samples {
		sum += s
	}
	return sum / float64(len(m.samples))
}

// Predict оценивает, хватит ли места на remaining оставшихся файлов.
// Возвращает оценку потребности в МБ и признак предсказанной нехватки.
// Пока наблюдений меньше minSamplesForPrediction, предсказание неактивно.
func (m *Monitor) Predict(remaining int) (estimatedMB float64, shortfall bool) {
	if len(m.samples) < minSamplesForPrediction || remaining <= 0 {
		return 0, false
	}

	estimatedMB = m.AverageSampleMB() * float64(remaining)
	return estimatedMB, estimatedMB > m.lastFreeMB
}

// Interval возвращает частоту проверок в файлах, соответствующую
// последней классификации.
func (m *Monitor) Interval() int {
	switch m.lastStatus {
	case StatusCritical:
		return intervalCritical
	case StatusWarning:
		return intervalWarning
	default:
		return intervalOK
	}
}

// LastFreeMB возвращает свободное место на момент последней проверки.
func (m *Monitor) LastFreeMB() float64 {
	return m.lastFreeMB
}

/*
Возможные расширения:
- Добавить экспоненциальное сглаживание вместо простого среднего
- Добавить учёт других процессов, пишущих на тот же диск
*/
