// Package timing 判断 A 股交易时段，供调度器在非交易时间跳过采集。
package timing

import (
	"time"
)

// Clock 提供当前时间，测试时可替换
type Clock interface {
	Now() time.Time
}

// SystemClock 使用系统时间
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// ClockFunc 将函数适配为 Clock
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time {
	return f()
}

// Session 一个连续交易时段，以当日秒数表示，两端均包含
type Session struct {
	Start int
	End   int
}

func clock(h, m, s int) int {
	return h*3600 + m*60 + s
}

// DefaultSessions 含集合竞价与收盘后几秒的缓冲，保证开收盘快照能被采到
var DefaultSessions = []Session{
	{Start: clock(9, 15, 0), End: clock(11, 30, 10)},
	{Start: clock(13, 0, 0), End: clock(15, 0, 10)},
}

// MarketTime 交易时段检测器，所有判断都换算到交易所时区后进行
type MarketTime struct {
	clock    Clock
	loc      *time.Location
	sessions []Session
}

// NewMarketTime 创建交易时段检测器。loc 为空时使用 UTC+8。
func NewMarketTime(c Clock, loc *time.Location) *MarketTime {
	if c == nil {
		c = SystemClock{}
	}
	if loc == nil {
		loc = time.FixedZone("CST", 8*3600)
	}
	return &MarketTime{clock: c, loc: loc, sessions: DefaultSessions}
}

// Now 返回交易所时区的当前时间
func (m *MarketTime) Now() time.Time {
	return m.clock.Now().In(m.loc)
}

// IsTradingTime 当前是否处于交易时段
func (m *MarketTime) IsTradingTime() bool {
	return m.IsTradingTimeAt(m.clock.Now())
}

// IsTradingTimeAt 判断给定时刻是否处于交易时段
func (m *MarketTime) IsTradingTimeAt(t time.Time) bool {
	t = t.In(m.loc)
	if !m.IsTradingDay(t) {
		return false
	}

	sec := secondOfDay(t)
	for _, s := range m.sessions {
		if sec >= s.Start && sec <= s.End {
			return true
		}
	}
	return false
}

// IsTradingDay 周一到周五视为交易日，不处理法定节假日
func (m *MarketTime) IsTradingDay(t time.Time) bool {
	wd := t.In(m.loc).Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// NextSessionStart 下一个交易时段的开始时间；正处于交易时段时返回当前时刻
func (m *MarketTime) NextSessionStart() time.Time {
	now := m.Now()
	if m.IsTradingTimeAt(now) {
		return now
	}

	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, m.loc)
	sec := secondOfDay(now)
	for i := 0; i < 8; i++ {
		d := day.AddDate(0, 0, i)
		if !m.IsTradingDay(d) {
			continue
		}
		for _, s := range m.sessions {
			if i > 0 || s.Start > sec {
				return d.Add(time.Duration(s.Start) * time.Second)
			}
		}
	}
	return now
}

// TradingEnd 当天收盘时间
func (m *MarketTime) TradingEnd() time.Time {
	now := m.Now()
	last := m.sessions[len(m.sessions)-1]
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, m.loc).Add(time.Duration(last.End) * time.Second)
}

func secondOfDay(t time.Time) int {
	h, mi, s := t.Clock()
	return clock(h, mi, s)
}
