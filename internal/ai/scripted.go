package ai

import (
	"context"
	"errors"
	"strings"
)

const ProviderScripted = "scripted"

var ErrNoPrompt = errors.New("no user message to reply to")

// Topic is the reply script a user message is routed to.
type Topic string

const (
	TopicCareerTransition Topic = "career-transition"
	TopicInterview        Topic = "interview-prep"
	TopicSalary           Topic = "salary"
	TopicGeneral          Topic = "general"
)

var topicKeywords = []struct {
	topic    Topic
	keywords []string
}{
	{TopicCareerTransition, []string{"career change", "transition"}},
	{TopicInterview, []string{"interview", "preparation"}},
	{TopicSalary, []string{"salary", "negotiation"}},
}

// Classify routes text to a topic by case-insensitive substring match.
// The first matching topic wins, so "salary interview" is an interview question.
func Classify(text string) Topic {
	lower := strings.ToLower(text)
	for _, tk := range topicKeywords {
		for _, kw := range tk.keywords {
			if strings.Contains(lower, kw) {
				return tk.topic
			}
		}
	}
	return TopicGeneral
}

const careerTransitionScript = `Career transitions can be exciting but challenging. Here are some key steps to consider:

1. **Assess your transferable skills** - Identify what you already know that applies to your target field
2. **Research the new industry** - Understand requirements, salary expectations, and growth opportunities
3. **Network actively** - Connect with professionals in your target field
4. **Consider gradual transition** - Part-time courses, freelance projects, or volunteering
5. **Update your brand** - LinkedIn, resume, and portfolio should reflect your new direction

What specific field are you considering transitioning into?`

const interviewScript = `Interview preparation is crucial for success. Here's a comprehensive approach:

**Research Phase:**
- Company background, mission, recent news
- Role requirements and expectations
- Common interview questions for the position

**Practice Phase:**
- Mock interviews with friends or professionals
- Record yourself answering questions
- Prepare STAR method examples

**Day of Interview:**
- Arrive 10-15 minutes early
- Bring multiple copies of your resume
- Prepare thoughtful questions about the role and company

What type of interview are you preparing for?`

const salaryScript = `Salary negotiation is a crucial skill. Here's how to approach it effectively:

**Research First:**
- Use sites like Glassdoor, PayScale, LinkedIn Salary Insights
- Consider location, experience, and company size
- Know your market value

**Negotiation Strategy:**
- Wait for the offer before discussing salary
- Express enthusiasm for the role first
- Present your case with data and examples
- Consider the entire package (benefits, PTO, flexibility)

**Sample Script:**
"I'm excited about this opportunity. Based on my research and experience, the market rate for this position is $X-Y. Would there be flexibility to discuss compensation?"

What's your current situation with salary discussions?`

const generalScriptBody = `I'd be happy to help you with your career-related inquiry. As a career counselor AI, I can assist with:

• Career planning and transitions
• Job search strategies
• Interview preparation
• Salary negotiation
• Skill development
• Professional networking
• Resume and LinkedIn optimization

Could you provide more specific details about your situation so I can give you more targeted advice?`

const quotePrefixLen = 50

// Script returns the canned reply for topic. text is only quoted by the general script.
func Script(topic Topic, text string) string {
	switch topic {
	case TopicCareerTransition:
		return careerTransitionScript
	case TopicInterview:
		return interviewScript
	case TopicSalary:
		return salaryScript
	default:
		quoted := text
		if r := []rune(text); len(r) > quotePrefixLen {
			quoted = string(r[:quotePrefixLen]) + "..."
		}
		return `Thank you for your question about "` + quoted + "\"\n\n" + generalScriptBody
	}
}

// ScriptedProvider answers the latest user message from a fixed set of scripts.
type ScriptedProvider struct{}

func NewScriptedProvider() *ScriptedProvider {
	return &ScriptedProvider{}
}

func (p *ScriptedProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			text := messages[i].Content
			return Script(Classify(text), text), nil
		}
	}
	return "", ErrNoPrompt
}
