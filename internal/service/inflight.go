package service

import "sync"

// inflightSet 是按会议划分的进程内"处理中"标记。
// 规格上这就是一个会议本地的布尔标志，不是分布式锁：
// 设计假定同一会议同一时刻只有一个进程在驱动它（单写者假设），
// 多进程争用不在保护范围内。
type inflightSet struct {
	mu     sync.Mutex
	active map[uint]bool
}

func newInflightSet() *inflightSet {
	return &inflightSet{active: make(map[uint]bool)}
}

// acquire 尝试为指定会议获取处理权；已被占用时返回 false。
func (s *inflightSet) acquire(meetingID uint) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active[meetingID] {
		return false
	}
	s.active[meetingID] = true
	return true
}

// release 释放指定会议的处理权。
func (s *inflightSet) release(meetingID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, meetingID)
}
