package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"philcali.me/compliance/internal/notifications"
)

type NotificationSNSService struct {
	Sns                 sns.Client
	ComplianceTopicArn  string
	OperationalTopicArn string
}

func (n *NotificationSNSService) _publish(topicArn string, input notifications.PublishInput) (*notifications.PublishOutput, error) {
	body, err := json.Marshal(map[string]interface{}{
		"eventType": input.EventType,
		"detail":    input.Detail,
	})
	if err != nil {
		return nil, err
	}
	publishInput := &sns.PublishInput{
		TopicArn: aws.String(topicArn),
		Message:  aws.String(string(body)),
	}
	if input.Subject != "" {
		publishInput.Subject = aws.String(input.Subject)
	}
	output, err := n.Sns.Publish(context.TODO(), publishInput)
	if err != nil {
		return nil, err
	}
	return &notifications.PublishOutput{
		MessageId: *output.MessageId,
	}, nil
}

func (n *NotificationSNSService) PublishCompliance(input notifications.PublishInput) (*notifications.PublishOutput, error) {
	return n._publish(n.ComplianceTopicArn, input)
}

func (n *NotificationSNSService) PublishOperational(input notifications.PublishInput) (*notifications.PublishOutput, error) {
	return n._publish(n.OperationalTopicArn, input)
}

// PublishDual fans the same notification out to the compliance and
// operational topics in parallel. One leg failing never cancels the
// other; both failures are reported, neither is thrown.
func (n *NotificationSNSService) PublishDual(input notifications.PublishInput) notifications.DualPublishOutput {
	var wg sync.WaitGroup
	var complianceOut, operationalOut *notifications.PublishOutput
	var complianceErr, operationalErr error
	wg.Add(2)
	go func() {
		defer wg.Done()
		complianceOut, complianceErr = n.PublishCompliance(input)
	}()
	go func() {
		defer wg.Done()
		operationalOut, operationalErr = n.PublishOperational(input)
	}()
	wg.Wait()
	output := notifications.DualPublishOutput{Errors: []string{}}
	if complianceErr != nil {
		output.Errors = append(output.Errors, complianceErr.Error())
	} else {
		output.ComplianceMessageId = complianceOut.MessageId
	}
	if operationalErr != nil {
		output.Errors = append(output.Errors, operationalErr.Error())
	} else {
		output.OperationalMessageId = operationalOut.MessageId
	}
	output.Delivered = complianceErr == nil || operationalErr == nil
	return output
}
