package stats

import (
	"bytes"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/shirou/gopsutil/process"
)

// topCommands — сколько самых частых команд показывать.
const topCommands = 5

// Process — потребление ресурсов процессом бота.
type Process struct {
	RSS uint64
	CPU float64
}

// ProcessProbe снимает показатели процесса.
type ProcessProbe func() (Process, error)

// SelfProbe возвращает пробу текущего процесса через gopsutil.
func SelfProbe() ProcessProbe {
	return func() (Process, error) {
		p, err := process.NewProcess(int32(os.Getpid()))
		if err != nil {
			return Process{}, err
		}
		mem, err := p.MemoryInfo()
		if err != nil {
			return Process{}, err
		}
		cpu, err := p.CPUPercent()
		if err != nil {
			return Process{}, err
		}
		return Process{RSS: mem.RSS, CPU: cpu}, nil
	}
}

// Tracker считает активность бота с момента запуска.
type Tracker struct {
	started    time.Time
	messages   atomic.Int64
	commands   atomic.Int64
	errors     atomic.Int64
	broadcasts atomic.Int64

	mu         sync.Mutex
	perCommand map[string]int64

	probe ProcessProbe
	now   func() time.Time
}

// NewTracker создаёт счётчики. probe может быть nil.
func NewTracker(probe ProcessProbe) *Tracker {
	return &Tracker{
		started:    time.Now(),
		perCommand: make(map[string]int64),
		probe:      probe,
		now:        time.Now,
	}
}

// MessageSeen учитывает входящее сообщение.
func (t *Tracker) MessageSeen() {
	t.messages.Add(1)
}

// CommandDone учитывает выполненную команду.
func (t *Tracker) CommandDone(command string, err error) {
	t.commands.Add(1)
	if err != nil {
		t.errors.Add(1)
	}
	t.mu.Lock()
	t.perCommand[command]++
	t.mu.Unlock()
}

// BroadcastSent учитывает доставленную часть рассылки.
func (t *Tracker) BroadcastSent(parts int) {
	t.broadcasts.Add(int64(parts))
}

// CommandCount — число вызовов команды.
type CommandCount struct {
	Command string
	Count   int64
}

// Snapshot — срез счётчиков.
type Snapshot struct {
	Uptime      time.Duration
	Messages    int64
	Commands    int64
	Errors      int64
	Broadcasts  int64
	TopCommands []CommandCount
	Process     *Process
}

// Snapshot возвращает текущие значения.
func (t *Tracker) Snapshot() Snapshot {
	s := Snapshot{
		Uptime:     t.now().Sub(t.started).Truncate(time.Second),
		Messages:   t.messages.Load(),
		Commands:   t.commands.Load(),
		Errors:     t.errors.Load(),
		Broadcasts: t.broadcasts.Load(),
	}
	t.mu.Lock()
	for cmd, n := range t.perCommand {
		s.TopCommands = append(s.TopCommands, CommandCount{Command: cmd, Count: n})
	}
	t.mu.Unlock()
	sort.Slice(s.TopCommands, func(i, j int) bool {
		if s.TopCommands[i].Count != s.TopCommands[j].Count {
			return s.TopCommands[i].Count > s.TopCommands[j].Count
		}
		return s.TopCommands[i].Command < s.TopCommands[j].Command
	})
	if len(s.TopCommands) > topCommands {
		s.TopCommands = s.TopCommands[:topCommands]
	}
	if t.probe != nil {
		if p, err := t.probe(); err == nil {
			s.Process = &p
		}
	}
	return s
}

// Render печатает срез таблицей для блока кода.
func Render(s Snapshot, trackedUsers int) string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Metric", "Value"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	table.Append([]string{"Uptime", s.Uptime.String()})
	table.Append([]string{"Messages", strconv.FormatInt(s.Messages, 10)})
	table.Append([]string{"Commands", strconv.FormatInt(s.Commands, 10)})
	table.Append([]string{"Errors", strconv.FormatInt(s.Errors, 10)})
	table.Append([]string{"Broadcast parts", strconv.FormatInt(s.Broadcasts, 10)})
	table.Append([]string{"Tracked users", strconv.Itoa(trackedUsers)})
	for _, c := range s.TopCommands {
		table.Append([]string{"/" + c.Command, strconv.FormatInt(c.Count, 10)})
	}
	if s.Process != nil {
		table.Append([]string{"RSS", strconv.FormatUint(s.Process.RSS/(1<<20), 10) + " MiB"})
		table.Append([]string{"CPU", strconv.FormatFloat(s.Process.CPU, 'f', 1, 64) + "%"})
	}
	table.Render()
	return buf.String()
}
